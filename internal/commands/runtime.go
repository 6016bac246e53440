package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/runtimeconfig"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// DefaultPlantTimeout bounds a command when no timeout option is given.
// Plants clone repositories, so this is generous.
const DefaultPlantTimeout = 5 * time.Minute

// PlantTimeout returns the configured command timeout, or DefaultPlantTimeout
// when none is set.
func PlantTimeout(cfg runtimeconfig.CommandsConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultPlantTimeout
}

// EnsureContext returns a non-nil context, falling back to context.Background when nil.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// commandContext bounds ctx by timeout and stores fields on it so loggers
// further down the pipeline tag their entries with the same seed.
func commandContext(ctx context.Context, timeout time.Duration, fields map[string]any) (context.Context, context.CancelFunc) {
	ctx = logging.ContextWithFields(EnsureContext(ctx), fields)
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns a usable logger, defaulting to a no-op logger when nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	return logging.Ensure(logger)
}
