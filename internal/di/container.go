package di

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-seeds/internal/fetch"
	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/logging/console"
	"github.com/goliatone/go-seeds/internal/logging/gologger"
	"github.com/goliatone/go-seeds/internal/markdown"
	"github.com/goliatone/go-seeds/internal/runtimeconfig"
	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/internal/store"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const defaultNotePattern = "*.md"

// Container wires the fetchers, stores and orchestrator for a planting run.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	cacheTTL      time.Duration

	workspace fetch.Workspace
	fetchers  *fetch.Registry
	overrides map[interfaces.SourceKind]interfaces.SourceFetcher

	store     interfaces.DocumentStore
	assets    interfaces.AssetWriter
	fileStore *store.FileStore
	bunStore  *store.BunDocumentStore

	locks        *seeds.KeyedMutex
	orchestrator *seeds.Orchestrator
}

// Option mutates the container before defaults are applied.
type Option func(*Container)

// WithLoggerProvider replaces the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies the database used by the bun storage provider. The
// caller keeps ownership and must close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the cache service used in front of the bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithDocumentStore bypasses the configured storage provider.
func WithDocumentStore(documents interfaces.DocumentStore) Option {
	return func(c *Container) {
		c.store = documents
	}
}

// WithAssetWriter bypasses the filesystem asset writer.
func WithAssetWriter(assets interfaces.AssetWriter) Option {
	return func(c *Container) {
		c.assets = assets
	}
}

// WithFetcher binds fetcher to kind after the built-in fetchers are registered.
func WithFetcher(kind interfaces.SourceKind, fetcher interfaces.SourceFetcher) Option {
	return func(c *Container) {
		if fetcher == nil {
			return
		}
		if c.overrides == nil {
			c.overrides = map[interfaces.SourceKind]interfaces.SourceFetcher{}
		}
		c.overrides[kind] = fetcher
	}
}

// WithLocker shares identity locks with another container writing the same
// store.
func WithLocker(locks *seeds.KeyedMutex) Option {
	return func(c *Container) {
		c.locks = locks
	}
}

// NewContainer validates cfg and builds every collaborator Plant needs.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
		workspace: fetch.Workspace{
			Root:     cfg.Workspace.Root,
			BuildDir: cfg.Workspace.BuildDir,
			DataDir:  cfg.Workspace.DataDir,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureStorage(); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.configureFetchers()

	if c.locks == nil {
		c.locks = seeds.NewKeyedMutex()
	}
	c.orchestrator = seeds.NewOrchestrator(c.fetchers, c.store, c.assets,
		seeds.WithLogger(logging.PlantLogger(c.loggerProvider)),
		seeds.WithConcurrency(cfg.Plant.Concurrency),
		seeds.WithLocker(c.locks),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{Writer: os.Stderr}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			logging.ModuleLogger(c.loggerProvider, "seeds.di").Warn("seeds.cache.disabled", "error", err)
		}
	}

	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStorage() error {
	storeLogger := logging.StoreLogger(c.loggerProvider)

	if c.assets == nil || (c.store == nil && c.isFilesystem()) {
		files, err := store.NewFileStore(c.Config.Workspace.Root,
			store.WithAssetsDir(c.Config.Workspace.AssetsDir),
			store.WithFileLogger(storeLogger),
		)
		if err != nil {
			return err
		}
		c.fileStore = files
		if c.assets == nil {
			c.assets = files
		}
	}

	if c.store != nil {
		return nil
	}
	if c.isFilesystem() {
		c.store = c.fileStore
		return nil
	}

	if c.bunDB == nil {
		db, err := store.OpenDB(c.Config.Storage.Driver, c.Config.Storage.DSN)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	opts := []store.BunOption{store.WithBunLogger(storeLogger)}
	if c.cacheService != nil && c.keySerializer != nil {
		opts = append(opts, store.WithCache(c.cacheService, c.keySerializer))
	}
	documents, err := store.NewBunDocumentStore(c.bunDB, opts...)
	if err != nil {
		return err
	}
	c.bunStore = documents
	c.store = documents
	return nil
}

func (c *Container) configureFetchers() {
	fetchLogger := logging.FetchLogger(c.loggerProvider)
	c.fetchers = fetch.NewRegistry()
	c.fetchers.Register(interfaces.SourceKindGit, fetch.NewGitFetcher(c.workspace, fetch.GitConfig{
		Binary: c.Config.Fetch.GitBinary,
		Depth:  c.Config.Fetch.Depth,
		Branch: c.Config.Fetch.Branch,
		Update: c.Config.Fetch.Update,
	}, fetch.WithGitLogger(fetchLogger)))
	c.fetchers.Register(interfaces.SourceKindLocal, fetch.NewLocalFetcher(c.Config.Workspace.Root))
	for kind, fetcher := range c.overrides {
		c.fetchers.Register(kind, fetcher)
	}
}

func (c *Container) isFilesystem() bool {
	provider := strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider))
	return provider == "" || provider == runtimeconfig.StorageProviderFilesystem
}

// Migrate creates the documents table when the bun provider is active.
func (c *Container) Migrate(ctx context.Context) error {
	if c.bunStore == nil {
		return nil
	}
	return c.bunStore.EnsureSchema(ctx)
}

// ExtractorConfig applies defaults to a seed's extractor settings.
func (c *Container) ExtractorConfig(def runtimeconfig.SeedDefinition) markdown.ExtractorConfig {
	cfg := markdown.ExtractorConfig{
		Directory:    def.Extractor.Directory,
		Pattern:      def.Extractor.Pattern,
		Recursive:    true,
		AssetsDir:    def.Extractor.AssetsDir,
		LinkedAssets: true,
	}
	if strings.TrimSpace(cfg.Pattern) == "" {
		cfg.Pattern = defaultNotePattern
	}
	if def.Extractor.Recursive != nil {
		cfg.Recursive = *def.Extractor.Recursive
	}
	if def.Extractor.LinkedAssets != nil {
		cfg.LinkedAssets = *def.Extractor.LinkedAssets
	}
	return cfg
}

// Extractor builds the markdown extractor for def.
func (c *Container) Extractor(def runtimeconfig.SeedDefinition) *markdown.MarkdownExtractor {
	logger := logging.WithSeedContext(logging.ExtractLogger(c.loggerProvider), def.Name, "", "extract")
	return markdown.NewExtractor(c.ExtractorConfig(def), markdown.WithExtractorLogger(logger))
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		err := c.bunDB.Close()
		c.bunDB = nil
		return err
	}
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

func (c *Container) Workspace() fetch.Workspace {
	return c.workspace
}

func (c *Container) Fetchers() *fetch.Registry {
	return c.fetchers
}

func (c *Container) DocumentStore() interfaces.DocumentStore {
	return c.store
}

func (c *Container) AssetWriter() interfaces.AssetWriter {
	return c.assets
}

// BunStore is nil unless the bun provider is active.
func (c *Container) BunStore() *store.BunDocumentStore {
	return c.bunStore
}

func (c *Container) Orchestrator() *seeds.Orchestrator {
	return c.orchestrator
}

func (c *Container) CacheService() repocache.CacheService {
	return c.cacheService
}
