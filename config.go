package seeds

import "github.com/goliatone/go-seeds/internal/runtimeconfig"

var (
	ErrWorkspaceRootRequired   = runtimeconfig.ErrWorkspaceRootRequired
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDriverUnknown    = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrPlantConcurrencyInvalid = runtimeconfig.ErrPlantConcurrencyInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrSeedInvalid             = runtimeconfig.ErrSeedInvalid
	ErrSeedDuplicate           = runtimeconfig.ErrSeedDuplicate
	ErrSeedNotFound            = runtimeconfig.ErrSeedNotFound
	ErrUnknownConfigKey        = runtimeconfig.ErrUnknownConfigKey
)

type (
	Config          = runtimeconfig.Config
	WorkspaceConfig = runtimeconfig.WorkspaceConfig
	StorageConfig   = runtimeconfig.StorageConfig
	CacheConfig     = runtimeconfig.CacheConfig
	FetchConfig     = runtimeconfig.FetchConfig
	PlantConfig     = runtimeconfig.PlantConfig
	CommandsConfig  = runtimeconfig.CommandsConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	SeedDefinition  = runtimeconfig.SeedDefinition
	ExtractorConfig = runtimeconfig.ExtractorConfig
)

const (
	StorageProviderFilesystem = runtimeconfig.StorageProviderFilesystem
	StorageProviderBun        = runtimeconfig.StorageProviderBun
)

// DefaultConfig returns the baseline configuration: a filesystem vault in
// the working directory with console logging.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}

// ParseConfig decodes TOML data over the defaults.
func ParseConfig(data string) (Config, error) {
	return runtimeconfig.Parse(data)
}
