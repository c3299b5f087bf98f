package games

import (
	"context"
	"sync"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

type inMemoryRepository struct {
	mu    sync.RWMutex
	games map[string]*game.State
}

// NewInMemoryRepository creates a new in-memory game repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		games: make(map[string]*game.State),
	}
}

func (r *inMemoryRepository) Exists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.games[name]
	return exists, nil
}

// Load returns a copy so callers never share maps with the store
func (r *inMemoryRepository) Load(_ context.Context, name string) (*game.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.games[name]
	if !exists {
		return nil, dnderr.NotFoundf("Game path `%s` does not exist", name).
			WithMeta("game", name)
	}

	return state.Clone(), nil
}

func (r *inMemoryRepository) Save(_ context.Context, name string, state *game.State) error {
	if state == nil {
		return dnderr.InvalidArgument("state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := state.Clone()
	if existing, ok := r.games[name]; ok {
		stored.Macros = existing.Clone().Macros
	} else {
		stored.Macros = make(map[string]string)
	}
	r.games[name] = stored

	return nil
}

func (r *inMemoryRepository) SaveMacros(_ context.Context, name string, macros map[string]string) error {
	if name == "" {
		return dnderr.InvalidArgument("game name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.games[name]
	if !ok {
		state = game.NewState()
		r.games[name] = state
	}

	state.Macros = make(map[string]string, len(macros))
	for k, v := range macros {
		state.Macros[k] = v
	}

	return nil
}
