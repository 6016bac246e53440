// Package logging scopes injected loggers per seeds module and carries
// structured fields through contexts. Nothing here holds process-wide state:
// callers always pass a provider or logger in.
package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const (
	rootModule     = "seeds"
	plantModule    = "seeds.plant"
	fetchModule    = "seeds.fetch"
	extractModule  = "seeds.extract"
	storeModule    = "seeds.store"
	commandsModule = "seeds.commands"
)

const (
	fieldSeed     = "seed"
	fieldIdentity = "identity"
	fieldAction   = "action"
)

// ModuleLogger returns the provider's logger for module annotated with a
// "module" field. A nil provider yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func PlantLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, plantModule)
}

func FetchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, fetchModule)
}

func ExtractLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, extractModule)
}

func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// CommandLogger returns the logger namespace for a command module
// (e.g. "seeds.commands.plant").
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return WithFields(ModuleLogger(provider, commandsModule+"."+name), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}

// WithSeedContext attaches seed name, document identity and action fields.
// Blank values are skipped.
func WithSeedContext(logger interfaces.Logger, seed, identity, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(seed); trimmed != "" {
		fields[fieldSeed] = trimmed
	}
	if trimmed := strings.TrimSpace(identity); trimmed != "" {
		fields[fieldIdentity] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields applies fields when logger implements interfaces.FieldsLogger and
// returns logger unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}
	return logger
}

// Ensure returns logger, or a no-op logger when it is nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

type contextKey string

const contextFieldsKey contextKey = "seeds.logging.fields"

// ContextWithFields returns a context carrying fields merged over any fields
// already present.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
