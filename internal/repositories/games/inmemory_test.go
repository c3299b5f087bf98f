package games_test

import (
	"context"
	"testing"

	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
	"github.com/KirkDiggler/rpg-helper-bot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := games.NewInMemoryRepository()

	ok, err := repo.Exists(ctx, "campaign")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Load(ctx, "campaign")
	assert.True(t, dnderr.IsNotFound(err))

	fixture := testutils.CreateTestGame("100", "Zog")
	require.NoError(t, repo.SaveMacros(ctx, "campaign", fixture.Macros))
	require.NoError(t, repo.Save(ctx, "campaign", fixture))

	ok, err = repo.Exists(ctx, "campaign")
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := repo.Load(ctx, "campaign")
	require.NoError(t, err)
	assert.Equal(t, fixture.Macros, state.Macros)
	assert.Equal(t, []string{"Zog"}, state.CharactersOf("100"))

	t.Run("loaded state is a copy", func(t *testing.T) {
		state.RemoveCharacter("100", "Zog")

		again, err := repo.Load(ctx, "campaign")
		require.NoError(t, err)
		assert.Equal(t, []string{"Zog"}, again.CharactersOf("100"))
	})

	t.Run("save keeps stored macros", func(t *testing.T) {
		modified := fixture.Clone()
		modified.Macros = map[string]string{"other": "d4"}
		require.NoError(t, repo.Save(ctx, "campaign", modified))

		again, err := repo.Load(ctx, "campaign")
		require.NoError(t, err)
		assert.Equal(t, fixture.Macros, again.Macros)
	})
}
