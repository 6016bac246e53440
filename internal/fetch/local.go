package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// LocalFetcher serves sources that already exist on disk. The URL is a
// directory path, relative paths resolve against BaseDir.
type LocalFetcher struct {
	BaseDir string
}

var _ interfaces.SourceFetcher = (*LocalFetcher)(nil)

// NewLocalFetcher returns a LocalFetcher rooted at baseDir.
func NewLocalFetcher(baseDir string) *LocalFetcher {
	return &LocalFetcher{BaseDir: baseDir}
}

// Fetch resolves the directory without copying it.
func (f *LocalFetcher) Fetch(ctx context.Context, source interfaces.SourceDescriptor) (interfaces.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.FetchResult{}, &seeds.FetchError{Kind: source.Kind, URL: source.URL, Err: err}
	}
	root := source.URL
	if !filepath.IsAbs(root) && f.BaseDir != "" {
		root = filepath.Join(f.BaseDir, root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return interfaces.FetchResult{}, &seeds.FetchError{Kind: source.Kind, URL: source.URL, Err: fmt.Errorf("%w: %v", ErrSourceMissing, err)}
	}
	if !info.IsDir() {
		return interfaces.FetchResult{}, &seeds.FetchError{Kind: source.Kind, URL: source.URL, Err: fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, root)}
	}
	return interfaces.FetchResult{Root: filepath.Clean(root)}, nil
}
