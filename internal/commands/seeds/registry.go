package seedscmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-seeds/internal/commands"
	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the handlers produced by RegisterSeedCommands.
type HandlerSet struct {
	Plant *PlantSeedHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	plantHandlerOpts []commands.HandlerOption[PlantSeedCommand]
}

// WithPlantHandlerOptions forwards options to the PlantSeedHandler constructor.
func WithPlantHandlerOptions(opts ...commands.HandlerOption[PlantSeedCommand]) Option {
	return func(cfg *options) {
		cfg.plantHandlerOpts = append(cfg.plantHandlerOpts, opts...)
	}
}

// RegisterSeedCommands builds the seed command handlers and registers them with reg when
// one is supplied.
func RegisterSeedCommands(reg CommandRegistry, planter Planter, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if planter == nil {
		return nil, ErrPlanterRequired
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := logging.CommandLogger(provider, "plant")
	plantHandler := NewPlantSeedHandler(planter, logger, cfg.plantHandlerOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(plantHandler); err != nil {
			return nil, err
		}
	}
	return &HandlerSet{Plant: plantHandler}, nil
}

// RegisterPlantCron re-plants msg.Seed on the schedule in cfg. The handler is executed with a
// background context.
func RegisterPlantCron(reg CronRegistrar, handler *PlantSeedHandler, cfg command.HandlerConfig, msg PlantSeedCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
