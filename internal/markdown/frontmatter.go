package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Nested maps are normalised to map[string]any so
// documents decoded here compare equal to ones decoded from JSON.
func ParseFrontMatter(source []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	fields := make(map[string]any, len(meta))
	for key, value := range meta {
		fields[key] = normalizeValue(value)
	}
	return fields, body, nil
}

// RenderDocument writes fields as a YAML frontmatter block followed by body.
// The body is written verbatim so a parse and render round trip keeps it.
func RenderDocument(fields map[string]any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter + "\n")
	if len(fields) > 0 {
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(fields); err != nil {
			return nil, fmt.Errorf("render frontmatter: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("render frontmatter: %w", err)
		}
	}
	buf.WriteString(frontMatterDelimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[fmt.Sprint(key)] = normalizeValue(nested)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = normalizeValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, nested := range typed {
			out[i] = normalizeValue(nested)
		}
		return out
	default:
		return value
	}
}
