package seedscmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-seeds/internal/commands"
	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const plantOperation = "seeds.plant"

// ErrPlanterRequired is returned when no planter is supplied.
var ErrPlanterRequired = errors.New("seeds command: planter is nil")

var _ command.Commander[PlantSeedCommand] = (*PlantSeedHandler)(nil)

// Planter runs a named seed.
type Planter interface {
	PlantNamed(ctx context.Context, name string) (*interfaces.PlantResult, error)
}

// PlantSeedHandler runs PlantSeedCommand through the shared handler foundation.
type PlantSeedHandler struct {
	inner *commands.Handler[PlantSeedCommand]
}

// NewPlantSeedHandler creates a handler bound to planter.
func NewPlantSeedHandler(planter Planter, logger interfaces.Logger, opts ...commands.HandlerOption[PlantSeedCommand]) *PlantSeedHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg PlantSeedCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := planter.PlantNamed(ctx, msg.Seed)
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"seed":          result.Seed,
				"created_count": len(result.Created),
				"merged_count":  len(result.Merged),
				"asset_count":   len(result.Assets),
				"error_count":   len(result.Errors),
				"state":         string(result.State),
			}).Info("seeds.command.plant.completed")
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[PlantSeedCommand]{
		commands.WithLogger[PlantSeedCommand](baseLogger),
		commands.WithOperation[PlantSeedCommand](plantOperation),
		commands.WithMessageFields(func(msg PlantSeedCommand) map[string]any {
			return map[string]any{"seed": msg.Seed}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PlantSeedCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PlantSeedHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PlantSeedCommand].
func (h *PlantSeedHandler) Execute(ctx context.Context, msg PlantSeedCommand) error {
	return h.inner.Execute(ctx, msg)
}
