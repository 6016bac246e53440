package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// LoaderConfig configures how Markdown files are discovered within a tree.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the supplied glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// SourceFile is a matched file and its raw bytes.
type SourceFile struct {
	// Path is slash separated and relative to the loader filesystem root.
	Path   string
	Source []byte
}

// Loader walks an fs.FS and returns the files matching its pattern.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

// NewLoader constructs a Loader using the provided filesystem and configuration.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	return &Loader{
		fs:        filesystem,
		pattern:   pattern,
		recursive: cfg.Recursive,
	}
}

// LoadFile reads a single file.
func (l *Loader) LoadFile(ctx context.Context, name string) (*SourceFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rel := cleanRelative(name)
	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	return &SourceFile{Path: rel, Source: data}, nil
}

// LoadDirectory discovers matching files under dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*SourceFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	root := cleanRelative(dir)
	var results []*SourceFile

	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if current != root && (!l.recursive || isHidden(d.Name())) {
				return fs.SkipDir
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !l.matchesPattern(relativeTo(root, current)) {
			return nil
		}

		result, err := l.LoadFile(ctx, current)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// ListFiles returns every regular file under dir, relative to dir.
func (l *Loader) ListFiles(ctx context.Context, dir string) ([]string, error) {
	root := cleanRelative(dir)
	var files []string
	err := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if current != root && isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, relativeTo(root, current))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) matchesPattern(rel string) bool {
	pattern := l.pattern
	if strings.Contains(pattern, "**") {
		// Basic support for ** by stripping repeated separators.
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}
	target := path.Base(rel)
	if strings.Contains(pattern, "/") {
		target = rel
	}
	match, err := path.Match(pattern, target)
	if err != nil {
		return false
	}
	return match
}

func cleanRelative(name string) string {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" {
		return "."
	}
	return clean
}

func relativeTo(root, current string) string {
	if root == "." {
		return current
	}
	return strings.TrimPrefix(current, root+"/")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
