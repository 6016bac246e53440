package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrUnknownConfigKey reports keys in a config file that map to no field.
var ErrUnknownConfigKey = errors.New("seeds config: unknown key")

// LoadFile decodes a TOML file over DefaultConfig and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("seeds config: decode %s: %w", path, err)
	}
	return finish(cfg, meta)
}

// Parse decodes TOML data over DefaultConfig and validates the result.
func Parse(data string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("seeds config: decode: %w", err)
	}
	return finish(cfg, meta)
}

func finish(cfg Config, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownConfigKey, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
