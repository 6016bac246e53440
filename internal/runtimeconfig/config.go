package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

var ErrWorkspaceRootRequired = errors.New("seeds config: workspace root is required")
var ErrStorageProviderUnknown = errors.New("seeds config: storage provider is invalid")
var ErrStorageDriverUnknown = errors.New("seeds config: storage driver is invalid")

// ErrStorageDSNRequired is returned when the bun provider has no connection string.
var ErrStorageDSNRequired = errors.New("seeds config: storage dsn is required for the bun provider")
var ErrPlantConcurrencyInvalid = errors.New("seeds config: plant concurrency must be zero or positive")
var ErrFetchDepthInvalid = errors.New("seeds config: fetch depth must be zero or positive")
var ErrCommandsTimeoutInvalid = errors.New("seeds config: command timeout must be zero or positive")
var ErrLoggingProviderRequired = errors.New("seeds config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("seeds config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("seeds config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("seeds config: logging format is invalid")
var ErrSeedInvalid = errors.New("seeds config: seed definition is invalid")
var ErrSeedDuplicate = errors.New("seeds config: seed name is defined more than once")
var ErrSeedNotFound = errors.New("seeds config: seed not found")

const (
	StorageProviderFilesystem = "filesystem"
	StorageProviderBun        = "bun"
)

// Config aggregates workspace, storage and seed definitions for a planting run.
type Config struct {
	Workspace WorkspaceConfig  `toml:"workspace"`
	Storage   StorageConfig    `toml:"storage"`
	Cache     CacheConfig      `toml:"cache"`
	Fetch     FetchConfig      `toml:"fetch"`
	Plant     PlantConfig      `toml:"plant"`
	Commands  CommandsConfig   `toml:"commands"`
	Logging   LoggingConfig    `toml:"logging"`
	Seeds     []SeedDefinition `toml:"seeds"`
}

// WorkspaceConfig locates the vault and the scratch directories beneath it.
type WorkspaceConfig struct {
	Root      string `toml:"root"`
	BuildDir  string `toml:"build_dir"`
	DataDir   string `toml:"data_dir"`
	AssetsDir string `toml:"assets_dir"`
}

// StorageConfig selects where documents are written.
type StorageConfig struct {
	Provider string `toml:"provider"`
	Driver   string `toml:"driver"`
	DSN      string `toml:"dsn"`
}

// CacheConfig captures cache behaviour toggles for the bun store.
type CacheConfig struct {
	Enabled    bool          `toml:"enabled"`
	DefaultTTL time.Duration `toml:"default_ttl"`
}

// FetchConfig controls the git fetcher.
type FetchConfig struct {
	GitBinary string `toml:"git_binary"`
	Depth     int    `toml:"depth"`
	Branch    string `toml:"branch"`
	Update    bool   `toml:"update"`
}

// PlantConfig bounds the write fan-out of a single plant.
type PlantConfig struct {
	Concurrency int `toml:"concurrency"`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled bool          `toml:"enabled"`
	Timeout time.Duration `toml:"timeout"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `toml:"provider"`
	Level     string   `toml:"level"`
	Format    string   `toml:"format"`
	AddSource bool     `toml:"add_source"`
	Focus     []string `toml:"focus"`
}

// SeedDefinition is a named seed as written in the config file.
type SeedDefinition struct {
	Name          string                      `toml:"name"`
	Source        interfaces.SourceDescriptor `toml:"source"`
	MergeStrategy string                      `toml:"merge_strategy"`
	Provenance    interfaces.ProvenanceRecord `toml:"provenance"`
	Extractor     ExtractorConfig             `toml:"extractor"`
}

// ExtractorConfig mirrors the markdown extractor options.
type ExtractorConfig struct {
	Directory    string `toml:"directory"`
	Pattern      string `toml:"pattern"`
	Recursive    *bool  `toml:"recursive"`
	AssetsDir    string `toml:"assets_dir"`
	LinkedAssets *bool  `toml:"linked_assets"`
}

// DefaultConfig returns the defaults used when a key is absent.
func DefaultConfig() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Root:      ".",
			BuildDir:  "build",
			DataDir:   "data",
			AssetsDir: "assets",
		},
		Storage: StorageConfig{
			Provider: StorageProviderFilesystem,
			Driver:   "sqlite3",
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Fetch: FetchConfig{
			GitBinary: "git",
			Depth:     1,
		},
		Plant: PlantConfig{
			Concurrency: 8,
		},
		Commands: CommandsConfig{
			Timeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Workspace.Root) == "" {
		return ErrWorkspaceRootRequired
	}
	switch normalize(cfg.Storage.Provider) {
	case StorageProviderFilesystem:
	case StorageProviderBun:
		if !isSupportedDriver(cfg.Storage.Driver) {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Plant.Concurrency < 0 {
		return ErrPlantConcurrencyInvalid
	}
	if cfg.Fetch.Depth < 0 {
		return ErrFetchDepthInvalid
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandsTimeoutInvalid
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	seen := map[string]struct{}{}
	for i, seed := range cfg.Seeds {
		if err := seed.Validate(); err != nil {
			return fmt.Errorf("%w: seeds[%d] (%s): %w", ErrSeedInvalid, i, seed.Name, err)
		}
		key := normalize(seed.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrSeedDuplicate, seed.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Seed returns the definition registered under name.
func (cfg Config) Seed(name string) (SeedDefinition, error) {
	key := normalize(name)
	for _, seed := range cfg.Seeds {
		if normalize(seed.Name) == key {
			return seed, nil
		}
	}
	return SeedDefinition{}, fmt.Errorf("%w: %s", ErrSeedNotFound, name)
}

// Validate checks a single seed definition.
func (d SeedDefinition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.MergeStrategy, validation.In(
			"",
			string(interfaces.MergeInsertAtTop),
			string(interfaces.MergeAppendToBottom),
			string(interfaces.MergeReplace),
		).Error("must be insertAtTop, appendToBottom or replace")),
		validation.Field(&d.Source, validation.By(validateSource)),
		validation.Field(&d.Provenance, validation.By(validateProvenance)),
	)
}

// SeedConfig converts the definition into the config accepted by Plant.
func (d SeedDefinition) SeedConfig() (seeds.SeedConfig, error) {
	return seeds.NewSeedConfig(d.Name, d.Source, interfaces.MergeStrategy(strings.TrimSpace(d.MergeStrategy)), d.Provenance)
}

func validateSource(value any) error {
	source, _ := value.(interfaces.SourceDescriptor)
	return validation.Errors{
		"kind": validation.Validate(string(source.Kind), validation.Required, validation.In(
			string(interfaces.SourceKindGit),
			string(interfaces.SourceKindLocal),
		)),
		"url": validation.Validate(source.URL, validation.Required),
	}.Filter()
}

func validateProvenance(value any) error {
	provenance, _ := value.(interfaces.ProvenanceRecord)
	return validation.Errors{
		"url": validation.Validate(provenance.URL, validation.Required),
	}.Filter()
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDriver(driver string) bool {
	switch normalize(driver) {
	case "sqlite3", "sqlite", "postgres", "postgresql", "pg":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
