package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-seeds"
)

type stubPlanter struct {
	cfg    seeds.Config
	named  []string
	all    int
	closed bool
	err    error
}

func (s *stubPlanter) PlantNamed(_ context.Context, name string) (*seeds.PlantResult, error) {
	s.named = append(s.named, name)
	return &seeds.PlantResult{Seed: name, State: "done", Created: []string{"a"}}, s.err
}

func (s *stubPlanter) PlantAll(context.Context) ([]*seeds.PlantResult, error) {
	s.all++
	results := make([]*seeds.PlantResult, 0, len(s.cfg.Seeds))
	for _, def := range s.cfg.Seeds {
		results = append(results, &seeds.PlantResult{Seed: def.Name, State: "done"})
	}
	return results, s.err
}

func (s *stubPlanter) Close() error {
	s.closed = true
	return nil
}

func withStub(t *testing.T, stub *stubPlanter) {
	t.Helper()
	original := moduleBuilder
	t.Cleanup(func() { moduleBuilder = original })
	moduleBuilder = func(cfg seeds.Config) (planter, error) {
		stub.cfg = cfg
		return stub, nil
	}
}

func TestRunAdHocSourceBuildsSeed(t *testing.T) {
	stub := &stubPlanter{}
	withStub(t, stub)

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-workspace", t.TempDir(),
		"-url", "https://github.com/example/vault.git",
		"-license", "MIT",
		"-strategy", "replace",
		"-dir", "notes",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stub.named) != 1 || stub.named[0] != adHocSeedName {
		t.Fatalf("expected ad-hoc seed to be planted, got %v", stub.named)
	}
	def, err := stub.cfg.Seed(adHocSeedName)
	if err != nil {
		t.Fatalf("ad-hoc seed missing from config: %v", err)
	}
	if def.Provenance.URL != "https://github.com/example/vault.git" || def.Provenance.License != "MIT" {
		t.Fatalf("unexpected provenance %#v", def.Provenance)
	}
	if def.MergeStrategy != "replace" || def.Extractor.Directory != "notes" {
		t.Fatalf("unexpected definition %#v", def)
	}
	if !stub.closed {
		t.Fatal("expected module to be closed")
	}
	if !strings.Contains(out.String(), "cli: done") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunRequiresSeeds(t *testing.T) {
	withStub(t, &stubPlanter{})
	if err := run(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without seeds")
	}
}

func TestRunPlantsAllConfiguredSeedsAsJSON(t *testing.T) {
	stub := &stubPlanter{}
	withStub(t, stub)

	configPath := filepath.Join(t.TempDir(), "seeds.toml")
	config := `
[[seeds]]
name = "one"
  [seeds.source]
  kind = "local"
  url = "one"
  [seeds.provenance]
  url = "https://example.com/one"

[[seeds]]
name = "two"
  [seeds.source]
  kind = "local"
  url = "two"
  [seeds.provenance]
  url = "https://example.com/two"
`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", configPath, "-json"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stub.all != 1 {
		t.Fatalf("expected PlantAll, got %d calls", stub.all)
	}

	var results []seeds.PlantResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(results) != 2 || results[0].Seed != "one" || results[1].Seed != "two" {
		t.Fatalf("unexpected results %#v", results)
	}
}

func TestRunReturnsPlantError(t *testing.T) {
	failure := errors.New("boom")
	stub := &stubPlanter{err: failure}
	withStub(t, stub)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-url", "notes", "-kind", "local"}, &out)
	if !errors.Is(err, failure) {
		t.Fatalf("expected plant error, got %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected partial results to be reported before the error")
	}
}

func TestRunPlantsLocalDirectory(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "source", "notes")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "hello.md"), []byte("---\ntitle: Hi\n---\nhi\n"), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-workspace", root,
		"-url", "source",
		"-kind", "local",
		"-dir", "notes",
		"-source-url", "https://example.com/source",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "hello.md")); err != nil {
		t.Fatalf("expected planted note: %v", err)
	}
}
