package seedscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const plantSeedMessageType = "seeds.plant"

// PlantSeedCommand plants the seed registered under Seed.
type PlantSeedCommand struct {
	// Seed names a seed definition from the loaded configuration.
	Seed string `json:"seed"`
}

// Type implements command.Message.
func (PlantSeedCommand) Type() string { return plantSeedMessageType }

// Validate ensures a seed name is present before handlers execute.
func (cmd PlantSeedCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Seed, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("seeds.plant.seed_required", "seed is required")
			}
			return nil
		})),
	)
}
