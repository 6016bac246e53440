package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// WriteVault writes notes, keyed by slash separated path relative to root,
// creating parent directories as needed.
func WriteVault(tb testing.TB, root string, notes map[string]string) {
	tb.Helper()
	for rel, contents := range notes {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
			tb.Fatalf("write %s: %v", rel, err)
		}
	}
}

// PlaceNote copies the fixture note at path into root as <identity>.md.
func PlaceNote(tb testing.TB, path, root, identity string) {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	WriteVault(tb, root, map[string]string{identity + ".md": string(data)})
}

// LoadSources decodes a JSON golden file holding a provenance list.
func LoadSources(tb testing.TB, path string) []interfaces.ProvenanceRecord {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read golden %s: %v", path, err)
	}
	var sources []interfaces.ProvenanceRecord
	if err := json.Unmarshal(data, &sources); err != nil {
		tb.Fatalf("decode golden %s: %v", path, err)
	}
	return sources
}
