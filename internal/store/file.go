package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/markdown"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const (
	DefaultAssetsDir = "assets"
	documentExt      = ".md"

	dirPermissions  = 0o755
	filePermissions = 0o644
)

// FileOption customises a FileStore.
type FileOption func(*FileStore)

// WithAssetsDir sets the directory, relative to the root, that receives assets.
func WithAssetsDir(dir string) FileOption {
	return func(s *FileStore) {
		if strings.TrimSpace(dir) != "" {
			s.assetsDir = dir
		}
	}
}

// WithFileLogger sets the logger used for write events.
func WithFileLogger(logger interfaces.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = logging.Ensure(logger)
	}
}

// FileStore keeps documents as Markdown files with YAML frontmatter under a
// vault root. Writes go through a temp file and rename so readers never see a
// half written note.
type FileStore struct {
	root      string
	assetsDir string
	logger    interfaces.Logger
}

var (
	_ interfaces.DocumentStore = (*FileStore)(nil)
	_ interfaces.AssetWriter   = (*FileStore)(nil)
)

// NewFileStore returns a FileStore rooted at root.
func NewFileStore(root string, opts ...FileOption) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrRootRequired
	}
	s := &FileStore{
		root:      filepath.Clean(root),
		assetsDir: DefaultAssetsDir,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Root returns the vault root.
func (s *FileStore) Root() string { return s.root }

// DocumentPath maps identity to <root>/<identity>.md. Blank identities and
// identities naming a directory are rejected.
func (s *FileStore) DocumentPath(identity string) (string, error) {
	if strings.TrimSpace(identity) == "" || strings.HasSuffix(filepath.ToSlash(identity), "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	return resolveInside(s.root, identity+documentExt, ErrInvalidIdentity)
}

// AssetPath maps a destination to <root>/<assets>/<destination>.
func (s *FileStore) AssetPath(destination string) (string, error) {
	return resolveInside(filepath.Join(s.root, s.assetsDir), destination, ErrInvalidAsset)
}

// FindByIdentity returns nil, nil when no note exists for identity.
func (s *FileStore) FindByIdentity(ctx context.Context, identity string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.DocumentPath(identity)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", target, err)
	}
	fields, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", target, err)
	}
	return &interfaces.Document{Identity: identity, Body: string(body), CustomFields: fields}, nil
}

// WriteDocument replaces the note for doc.Identity.
func (s *FileStore) WriteDocument(ctx context.Context, doc *interfaces.Document) error {
	if doc == nil {
		return errors.New("store: document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.DocumentPath(doc.Identity)
	if err != nil {
		return err
	}
	data, err := markdown.RenderDocument(doc.CustomFields, doc.Body)
	if err != nil {
		return err
	}
	if err := writeAtomic(target, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	s.logger.Debug("seeds.store.document_written", "identity", doc.Identity, "path", target)
	return nil
}

// CopyAsset copies source into the assets dir, overwriting any previous copy.
func (s *FileStore) CopyAsset(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.AssetPath(destination)
	if err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("store: open asset %s: %w", source, err)
	}
	defer in.Close()

	if err := writeAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return err
	}
	s.logger.Debug("seeds.store.asset_copied", "source", source, "path", target)
	return nil
}

func resolveInside(base, name string, invalid error) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", invalid, name)
	}
	target := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", invalid, name)
	}
	return target, nil
}

func writeAtomic(target string, fill func(io.Writer) error) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".seeds-*")
	if err != nil {
		return fmt.Errorf("store: temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("store: write %s: %w", target, err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("store: chmod %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("store: close %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("store: rename %s: %w", target, err)
	}
	return nil
}
