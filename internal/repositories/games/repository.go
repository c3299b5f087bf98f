package games

//go:generate mockgen -destination=mock/mock_repository.go -package=mockgames -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
)

// Repository defines how whole games are loaded and persisted
type Repository interface {
	// Exists reports whether a game with this name can be loaded
	Exists(ctx context.Context, name string) (bool, error)

	// Load reads the full state of a game. The macro dictionary is required,
	// everything else defaults to empty.
	Load(ctx context.Context, name string) (*game.State, error)

	// Save writes characters, ownership and defaults. Macros are left untouched.
	Save(ctx context.Context, name string, state *game.State) error

	// SaveMacros replaces the macro dictionary of a game
	SaveMacros(ctx context.Context, name string, macros map[string]string) error
}
