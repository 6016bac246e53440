package markdown

import (
	"strings"
	"testing"
)

func TestParseFrontMatterRoundTrip(t *testing.T) {
	source := []byte("---\ntitle: Sample\ntags:\n  - a\n---\n# Sample\n\nBody\n")

	fields, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fields["title"] != "Sample" {
		t.Fatalf("unexpected fields %#v", fields)
	}

	rendered, err := RenderDocument(fields, string(body))
	if err != nil {
		t.Fatalf("RenderDocument: %v", err)
	}
	again, againBody, err := ParseFrontMatter(rendered)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if again["title"] != "Sample" || string(againBody) != string(body) {
		t.Fatalf("round trip changed document: %#v %q", again, againBody)
	}
}

func TestRenderDocumentStartsWithDelimiter(t *testing.T) {
	out, err := RenderDocument(map[string]any{"title": "x"}, "body")
	if err != nil {
		t.Fatalf("RenderDocument: %v", err)
	}
	if !strings.HasPrefix(string(out), "---\ntitle: x\n---\n") || !strings.HasSuffix(string(out), "body") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReferencesResolveLocalFiles(t *testing.T) {
	body := []byte("![a](img/a.png)\n[b](../shared/b.pdf)\n[c](https://example.com/c.png)\n[d](#heading)\n[e](note.md)\n![f](/root.png)\n![g](../../escape.png)\n![a again](img/a.png)\n")

	refs := NewReferenceScanner().References("notes/doc.md", body)

	want := []string{"notes/img/a.png", "shared/b.pdf", "root.png"}
	if strings.Join(refs, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, refs)
	}
}
