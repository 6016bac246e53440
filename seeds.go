package seeds

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-seeds/internal/di"
	pipeline "github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

type (
	SourceKind       = interfaces.SourceKind
	SourceDescriptor = interfaces.SourceDescriptor
	MergeStrategy    = interfaces.MergeStrategy
	ProvenanceRecord = interfaces.ProvenanceRecord
	Document         = interfaces.Document
	Asset            = interfaces.Asset
	PrepareOutput    = interfaces.PrepareOutput
	FetchResult      = interfaces.FetchResult
	PlantResult      = interfaces.PlantResult
	PlantState       = interfaces.PlantState

	SourceFetcher = interfaces.SourceFetcher
	Extractor     = interfaces.Extractor
	ExtractorFunc = interfaces.ExtractorFunc
	DocumentStore = interfaces.DocumentStore
	AssetWriter   = interfaces.AssetWriter

	// SeedConfig is the validated input to Plant.
	SeedConfig = pipeline.SeedConfig

	// Option overrides a collaborator built from Config.
	Option = di.Option
)

const (
	SourceKindGit   = interfaces.SourceKindGit
	SourceKindLocal = interfaces.SourceKindLocal

	MergeInsertAtTop    = interfaces.MergeInsertAtTop
	MergeAppendToBottom = interfaces.MergeAppendToBottom
	MergeReplace        = interfaces.MergeReplace
)

var (
	ErrFetch                = pipeline.ErrFetch
	ErrExtraction           = pipeline.ErrExtraction
	ErrIdentityMismatch     = pipeline.ErrIdentityMismatch
	ErrUnknownMergeStrategy = pipeline.ErrUnknownMergeStrategy
	ErrWrite                = pipeline.ErrWrite
	ErrAssetWrite           = pipeline.ErrAssetWrite
)

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithBunDB          = di.WithBunDB
	WithCache          = di.WithCache
	WithDocumentStore  = di.WithDocumentStore
	WithAssetWriter    = di.WithAssetWriter
	WithFetcher        = di.WithFetcher
)

// NewSeedConfig validates a seed and applies the default merge strategy.
func NewSeedConfig(name string, source SourceDescriptor, strategy MergeStrategy, provenance ProvenanceRecord) (SeedConfig, error) {
	return pipeline.NewSeedConfig(name, source, strategy, provenance)
}

// Merge combines an existing document with an incoming one. It never
// modifies its inputs.
func Merge(existing, incoming *Document, strategy MergeStrategy, provenance ProvenanceRecord) (*Document, error) {
	return pipeline.Merge(existing, incoming, strategy, provenance)
}

// Sources returns the provenance records stored on a document's custom fields.
func Sources(fields map[string]any) []ProvenanceRecord {
	return pipeline.Sources(fields)
}

// Module is the seed planting runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a Module from cfg and prepares its storage.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := container.Migrate(context.Background()); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("seeds: migrate storage: %w", err)
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the configuration the module was built from.
func (m *Module) Config() Config {
	return m.container.Config
}

// Plant runs one seed with a caller supplied extractor.
func (m *Module) Plant(ctx context.Context, cfg SeedConfig, extractor Extractor) (*PlantResult, error) {
	return m.container.Orchestrator().Plant(ctx, cfg, extractor)
}

// PlantNamed runs a seed defined in the config using the markdown extractor.
func (m *Module) PlantNamed(ctx context.Context, name string) (*PlantResult, error) {
	def, err := m.container.Config.Seed(name)
	if err != nil {
		return nil, err
	}
	cfg, err := def.SeedConfig()
	if err != nil {
		return nil, err
	}
	return m.Plant(ctx, cfg, m.container.Extractor(def))
}

// PlantAll runs every configured seed in order. A failing seed does not stop
// the remaining ones; all failures are joined into the returned error.
func (m *Module) PlantAll(ctx context.Context) ([]*PlantResult, error) {
	var (
		results []*PlantResult
		errs    []error
	)
	for _, def := range m.container.Config.Seeds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := m.PlantNamed(ctx, def.Name)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", def.Name, err))
		}
	}
	return results, errors.Join(errs...)
}

// Close releases resources owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Orchestrator exposes the orchestrator shared by every plant on the module.
func (m *Module) Orchestrator() *pipeline.Orchestrator {
	return m.container.Orchestrator()
}
