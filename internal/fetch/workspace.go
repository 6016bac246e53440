package fetch

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-seeds/internal/identity"
)

const (
	DefaultBuildDir = "build"
	DefaultDataDir  = "data"

	dirPermissions = 0o755
)

// Workspace resolves the per-seed scratch directories under a root.
type Workspace struct {
	Root     string
	BuildDir string
	DataDir  string
}

// NewWorkspace applies the default build and data directory names.
func NewWorkspace(root string) Workspace {
	return Workspace{Root: root, BuildDir: DefaultBuildDir, DataDir: DefaultDataDir}
}

// BuildDirPath creates and returns <root>/<build>/<name>.
func (w Workspace) BuildDirPath(name string) (string, error) {
	return w.ensure(w.BuildDir, DefaultBuildDir, name)
}

// DataDirPath creates and returns <root>/<data>/<name>.
func (w Workspace) DataDirPath(name string) (string, error) {
	return w.ensure(w.DataDir, DefaultDataDir, name)
}

func (w Workspace) ensure(dir, fallback, name string) (string, error) {
	if strings.TrimSpace(w.Root) == "" {
		return "", ErrWorkspaceRoot
	}
	if strings.TrimSpace(dir) == "" {
		dir = fallback
	}
	target := filepath.Join(w.Root, dir, DirName(name))
	if err := os.MkdirAll(target, dirPermissions); err != nil {
		return "", fmt.Errorf("fetch: create %s: %w", target, err)
	}
	return target, nil
}

// DirName turns a seed name or source URL into a single safe path segment.
func DirName(value string) string {
	trimmed := strings.TrimSpace(value)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
		trimmed = parsed.Host + "/" + strings.TrimSuffix(strings.Trim(parsed.Path, "/"), ".git")
	}
	if normalized, err := slug.Normalize(trimmed); err == nil && normalized != "" && !strings.ContainsAny(normalized, `/\`) && normalized != "." && normalized != ".." {
		return normalized
	}
	return identity.SeedUUID(trimmed).String()
}
