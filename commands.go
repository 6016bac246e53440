package seeds

import (
	"github.com/goliatone/go-seeds/internal/commands"
	seedscmd "github.com/goliatone/go-seeds/internal/commands/seeds"
)

type (
	CommandRegistry  = seedscmd.CommandRegistry
	CommandHandlers  = seedscmd.HandlerSet
	PlantSeedCommand = seedscmd.PlantSeedCommand
)

// RegisterCommands builds the plant command handler, applying the configured
// timeout, and registers it with reg when one is supplied.
func (m *Module) RegisterCommands(reg CommandRegistry) (*CommandHandlers, error) {
	timeout := commands.PlantTimeout(m.container.Config.Commands)
	return seedscmd.RegisterSeedCommands(reg, m, m.container.LoggerProvider(),
		seedscmd.WithPlantHandlerOptions(commands.WithTimeout[seedscmd.PlantSeedCommand](timeout)),
	)
}
