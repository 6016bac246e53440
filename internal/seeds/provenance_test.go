package seeds

import (
	"testing"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

func TestSourcesDecodesGenericShapes(t *testing.T) {
	cases := map[string]any{
		"typed": []interfaces.ProvenanceRecord{{Name: "n", URL: "https://x", License: "MIT"}},
		"json":  []any{map[string]any{"name": "n", "url": "https://x", "license": "MIT"}},
		"yaml2": []any{map[any]any{"name": "n", "url": "https://x", "license": "MIT"}},
		"maps":  []map[string]any{{"name": "n", "url": "https://x", "license": "MIT"}},
		"flat":  []map[string]string{{"name": "n", "url": "https://x", "license": "MIT"}},
		"lone":  map[string]any{"name": "n", "url": "https://x", "license": "MIT"},
	}
	want := interfaces.ProvenanceRecord{Name: "n", URL: "https://x", License: "MIT"}
	for name, raw := range cases {
		sources := Sources(map[string]any{interfaces.SourcesField: raw})
		if len(sources) != 1 || sources[0] != want {
			t.Fatalf("%s: unexpected sources %#v", name, sources)
		}
	}
}

func TestSourcesReadsPlainURLs(t *testing.T) {
	sources := Sources(map[string]any{interfaces.SourcesField: []any{"https://a", map[string]any{"url": "https://b", "date": "2024-01-01"}, 42}})
	if len(sources) != 2 || sources[0].URL != "https://a" || sources[1].URL != "https://b" {
		t.Fatalf("unexpected sources %#v", sources)
	}
	if lone := Sources(map[string]any{interfaces.SourcesField: "https://a"}); len(lone) != 1 || lone[0].URL != "https://a" {
		t.Fatalf("expected a lone URL to read as one source, got %#v", lone)
	}
}

func TestSourcesMissingReturnsNil(t *testing.T) {
	if got := Sources(map[string]any{"title": "x"}); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := Sources(nil); got != nil {
		t.Fatalf("expected nil for nil fields, got %#v", got)
	}
}

func TestAppendProvenanceDedupesByURL(t *testing.T) {
	fields := map[string]any{interfaces.SourcesField: []interfaces.ProvenanceRecord{{URL: "https://x", License: "MIT"}}}

	out := AppendProvenance(fields, interfaces.ProvenanceRecord{URL: "https://x", License: "Apache-2.0"})

	sources := Sources(out)
	if len(sources) != 1 || sources[0].License != "MIT" {
		t.Fatalf("expected existing record kept unchanged, got %#v", sources)
	}
}

func TestAppendProvenanceKeepsUnknownEntryShapes(t *testing.T) {
	cases := map[string]any{
		"string":     []any{"https://a"},
		"extra keys": []any{map[string]any{"url": "https://a", "date": "2024-01-01"}},
		"yaml2":      []any{map[any]any{"url": "https://a", "date": "2024-01-01"}},
		"flat":       []map[string]string{{"url": "https://a", "date": "2024-01-01"}},
		"lone":       "https://a",
	}
	for name, raw := range cases {
		fields := map[string]any{interfaces.SourcesField: raw}

		out := AppendProvenance(fields, interfaces.ProvenanceRecord{URL: "https://b"})

		entries, ok := out[interfaces.SourcesField].([]any)
		if !ok || len(entries) != 2 {
			t.Fatalf("%s: expected the original entry plus the new one, got %#v", name, out[interfaces.SourcesField])
		}
		if name != "string" && name != "lone" {
			if mapped, ok := stringKeyed(entries[0]); !ok || mapped["date"] != "2024-01-01" {
				t.Fatalf("%s: expected extra keys kept, got %#v", name, entries[0])
			}
		}
		if sources := Sources(out); len(sources) != 2 || sources[0].URL != "https://a" || sources[1].URL != "https://b" {
			t.Fatalf("%s: unexpected sources %#v", name, sources)
		}
		if err := ValidateSources(out); err != nil {
			t.Fatalf("%s: expected appended sources to validate, got %v", name, err)
		}
		if _, ok := fields[interfaces.SourcesField].([]interfaces.ProvenanceRecord); ok {
			t.Fatalf("%s: input modified", name)
		}
	}
}

func TestAppendProvenanceDedupesAgainstPlainURL(t *testing.T) {
	fields := map[string]any{interfaces.SourcesField: []any{"https://a"}}

	out := AppendProvenance(fields, interfaces.ProvenanceRecord{URL: "https://a", License: "MIT"})

	entries := out[interfaces.SourcesField].([]any)
	if len(entries) != 1 || entries[0] != "https://a" {
		t.Fatalf("expected the plain URL entry to stand for the source, got %#v", entries)
	}
}

func TestValidateSources(t *testing.T) {
	valid := map[string]any{interfaces.SourcesField: []interfaces.ProvenanceRecord{{URL: "https://x"}}}
	if err := ValidateSources(valid); err != nil {
		t.Fatalf("expected valid sources, got %v", err)
	}

	if err := ValidateSources(map[string]any{}); err == nil {
		t.Fatal("expected missing sources to fail validation")
	}

	empty := map[string]any{interfaces.SourcesField: []interfaces.ProvenanceRecord{}}
	if err := ValidateSources(empty); err == nil {
		t.Fatal("expected empty sources to fail validation")
	}

	blankURL := map[string]any{interfaces.SourcesField: []interfaces.ProvenanceRecord{{License: "MIT"}}}
	if err := ValidateSources(blankURL); err == nil {
		t.Fatal("expected blank url to fail validation")
	}

	nested := map[string]any{interfaces.SourcesField: []any{
		"https://a",
		map[any]any{"url": "https://b", "meta": map[any]any{"stars": 3}},
	}}
	if err := ValidateSources(nested); err != nil {
		t.Fatalf("expected mixed shapes to validate, got %v", err)
	}

	blankString := map[string]any{interfaces.SourcesField: []any{""}}
	if err := ValidateSources(blankString); err == nil {
		t.Fatal("expected blank string entry to fail validation")
	}
}
