package markdown

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ReferenceScanner finds local files referenced by image and link nodes.
// It is stateless and safe to share.
type ReferenceScanner struct {
	engine goldmark.Markdown
}

// NewReferenceScanner builds a scanner with the GFM extensions enabled so
// tables and task lists do not hide references from the walker.
func NewReferenceScanner() *ReferenceScanner {
	return &ReferenceScanner{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// References returns the local destinations in body, resolved against
// docPath's directory. Remote URLs, anchors, markdown notes and paths that
// escape the tree are skipped.
func (s *ReferenceScanner) References(docPath string, body []byte) []string {
	root := s.engine.Parser().Parse(text.NewReader(body))

	seen := map[string]struct{}{}
	var refs []string
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var destination []byte
		switch typed := node.(type) {
		case *ast.Image:
			destination = typed.Destination
		case *ast.Link:
			destination = typed.Destination
		default:
			return ast.WalkContinue, nil
		}
		resolved, ok := resolveLocal(docPath, string(destination))
		if !ok {
			return ast.WalkContinue, nil
		}
		if _, dup := seen[resolved]; !dup {
			seen[resolved] = struct{}{}
			refs = append(refs, resolved)
		}
		return ast.WalkContinue, nil
	})
	return refs
}

func resolveLocal(docPath, destination string) (string, bool) {
	destination = strings.TrimSpace(destination)
	if destination == "" || strings.HasPrefix(destination, "#") {
		return "", false
	}
	parsed, err := url.Parse(destination)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "", false
	}
	target, err := url.PathUnescape(parsed.Path)
	if err != nil || target == "" {
		return "", false
	}
	if ext := strings.ToLower(path.Ext(target)); ext == "" || ext == ".md" {
		return "", false
	}

	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		resolved = path.Clean(path.Join(path.Dir(docPath), target))
	}
	if resolved == "." || resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", false
	}
	return resolved, true
}
