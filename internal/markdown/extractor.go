package markdown

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// ExtractorConfig controls which parts of a fetched tree become documents
// and assets. Directories are relative to the fetch root.
type ExtractorConfig struct {
	// Directory holds the notes. Identities are relative to it.
	Directory string
	// Pattern filters note files (defaults to "*.md").
	Pattern string
	// Recursive descends into sub-directories of Directory.
	Recursive bool
	// AssetsDir is copied wholesale; destinations are relative to it.
	AssetsDir string
	// LinkedAssets adds files referenced from note bodies.
	LinkedAssets bool
}

// ExtractorOption customises a MarkdownExtractor.
type ExtractorOption func(*MarkdownExtractor)

// WithExtractorLogger sets the logger used for extraction events.
func WithExtractorLogger(logger interfaces.Logger) ExtractorOption {
	return func(e *MarkdownExtractor) {
		e.logger = logging.Ensure(logger)
	}
}

// WithFileSystem overrides how the fetch root is opened.
func WithFileSystem(open func(root string) fs.FS) ExtractorOption {
	return func(e *MarkdownExtractor) {
		if open != nil {
			e.open = open
		}
	}
}

// MarkdownExtractor implements interfaces.Extractor for trees of Markdown
// notes with YAML frontmatter.
type MarkdownExtractor struct {
	cfg     ExtractorConfig
	scanner *ReferenceScanner
	logger  interfaces.Logger
	open    func(root string) fs.FS
}

var _ interfaces.Extractor = (*MarkdownExtractor)(nil)

// NewExtractor builds a MarkdownExtractor.
func NewExtractor(cfg ExtractorConfig, opts ...ExtractorOption) *MarkdownExtractor {
	extractor := &MarkdownExtractor{
		cfg:     cfg,
		scanner: NewReferenceScanner(),
		logger:  logging.NoOp(),
		open:    os.DirFS,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(extractor)
		}
	}
	return extractor
}

// Extract reads every note under the configured directory. Any unreadable
// note or malformed frontmatter fails the whole extraction.
func (e *MarkdownExtractor) Extract(ctx context.Context, fetched interfaces.FetchResult) (interfaces.PrepareOutput, error) {
	if strings.TrimSpace(fetched.Root) == "" {
		return interfaces.PrepareOutput{}, &seeds.ExtractionError{Err: errors.New("fetch result has no root")}
	}

	filesystem := e.open(fetched.Root)
	loader := NewLoader(filesystem, LoaderConfig{Pattern: e.cfg.Pattern, Recursive: e.cfg.Recursive})
	notesDir := cleanRelative(e.cfg.Directory)

	files, err := loader.LoadDirectory(ctx, notesDir)
	if err != nil {
		return interfaces.PrepareOutput{}, &seeds.ExtractionError{Root: fetched.Root, Path: notesDir, Err: err}
	}

	out := interfaces.PrepareOutput{
		Documents: make([]*interfaces.Document, 0, len(files)),
	}
	assets := newAssetSet(fetched.Root)

	for _, file := range files {
		fields, body, err := ParseFrontMatter(file.Source)
		if err != nil {
			return interfaces.PrepareOutput{}, &seeds.ExtractionError{Root: fetched.Root, Path: file.Path, Err: err}
		}
		out.Documents = append(out.Documents, &interfaces.Document{
			Identity:     Identity(notesDir, file.Path),
			Body:         string(body),
			CustomFields: fields,
		})

		if !e.cfg.LinkedAssets {
			continue
		}
		for _, ref := range e.scanner.References(file.Path, body) {
			info, statErr := fs.Stat(filesystem, ref)
			if statErr != nil || info.IsDir() {
				e.logger.Debug("seeds.extract.reference_skipped", "document", file.Path, "reference", ref)
				continue
			}
			assets.add(ref, e.assetDestination(ref))
		}
	}

	if strings.TrimSpace(e.cfg.AssetsDir) != "" {
		assetsDir := cleanRelative(e.cfg.AssetsDir)
		files, err := loader.ListFiles(ctx, assetsDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return interfaces.PrepareOutput{}, &seeds.ExtractionError{Root: fetched.Root, Path: assetsDir, Err: err}
		}
		for _, rel := range files {
			assets.add(path.Join(assetsDir, rel), rel)
		}
	}

	out.Assets = assets.list()
	e.logger.Debug("seeds.extract.done", "root", fetched.Root, "documents", len(out.Documents), "assets", len(out.Assets))
	return out, nil
}

func (e *MarkdownExtractor) assetDestination(ref string) string {
	if dir := cleanRelative(e.cfg.AssetsDir); dir != "." && strings.HasPrefix(ref, dir+"/") {
		return strings.TrimPrefix(ref, dir+"/")
	}
	return ref
}

// Identity maps a note path to its vault identity: the slash separated path
// relative to dir, without the file extension.
func Identity(dir, file string) string {
	rel := relativeTo(cleanRelative(dir), cleanRelative(file))
	return strings.TrimSuffix(rel, path.Ext(rel))
}

type assetSet struct {
	root  string
	seen  map[string]struct{}
	items []interfaces.Asset
}

func newAssetSet(root string) *assetSet {
	return &assetSet{root: root, seen: map[string]struct{}{}}
}

func (s *assetSet) add(rel, destination string) {
	if _, ok := s.seen[destination]; ok {
		return
	}
	s.seen[destination] = struct{}{}
	s.items = append(s.items, interfaces.Asset{
		SourcePath:      filepath.Join(s.root, filepath.FromSlash(rel)),
		DestinationPath: destination,
	})
}

func (s *assetSet) list() []interfaces.Asset {
	return s.items
}
