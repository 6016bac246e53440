package seeds

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// SeedConfig describes one plant run. Build it with NewSeedConfig so the merge
// strategy default is resolved up front; treat it as read-only afterwards.
type SeedConfig struct {
	Name          string
	Source        interfaces.SourceDescriptor
	MergeStrategy interfaces.MergeStrategy
	Provenance    interfaces.ProvenanceRecord
}

// NewSeedConfig resolves the default merge strategy and validates the result.
func NewSeedConfig(name string, source interfaces.SourceDescriptor, strategy interfaces.MergeStrategy, provenance interfaces.ProvenanceRecord) (SeedConfig, error) {
	cfg := SeedConfig{
		Name:          strings.TrimSpace(name),
		Source:        source,
		MergeStrategy: ResolveMergeStrategy(strategy),
		Provenance:    provenance,
	}
	if err := cfg.Validate(); err != nil {
		return SeedConfig{}, err
	}
	return cfg, nil
}

// ResolveMergeStrategy returns the default strategy for a blank value and the
// input unchanged otherwise. Unknown values are left for Validate to reject.
func ResolveMergeStrategy(strategy interfaces.MergeStrategy) interfaces.MergeStrategy {
	if strings.TrimSpace(string(strategy)) == "" {
		return interfaces.DefaultMergeStrategy
	}
	return strategy
}

// IsKnownMergeStrategy reports whether strategy is one of the supported values.
func IsKnownMergeStrategy(strategy interfaces.MergeStrategy) bool {
	switch strategy {
	case interfaces.MergeInsertAtTop, interfaces.MergeAppendToBottom, interfaces.MergeReplace:
		return true
	}
	return false
}

// Validate checks the strategy first so callers can match
// ErrUnknownMergeStrategy, then the remaining fields.
func (c SeedConfig) Validate() error {
	if !IsKnownMergeStrategy(c.MergeStrategy) {
		return &UnknownMergeStrategyError{Strategy: c.MergeStrategy}
	}
	return validation.Errors{
		"source.kind":    validation.Validate(string(c.Source.Kind), validation.Required),
		"source.url":     validation.Validate(c.Source.URL, validation.Required),
		"provenance.url": validation.Validate(c.Provenance.URL, validation.Required, is.RequestURL),
	}.Filter()
}
