//go:build integration
// +build integration

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

func TestRedisRepository_Integration(t *testing.T) {
	client := testutils.CreateRedisContainerClient(t)
	repo := games.NewRedis(client)
	ctx := context.Background()

	t.Run("unknown game", func(t *testing.T) {
		_, err := repo.Load(ctx, "campaign")
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("save and load", func(t *testing.T) {
		fixture := testutils.CreateTestGame("100", "Zog")
		fixture.PutCharacter("100", testutils.CreateTestCharacter("Lyra"))

		require.NoError(t, repo.SaveMacros(ctx, "campaign", fixture.Macros))
		require.NoError(t, repo.Save(ctx, "campaign", fixture))

		state, err := repo.Load(ctx, "campaign")
		require.NoError(t, err)

		assert.Equal(t, fixture.Macros, state.Macros)
		assert.Equal(t, []string{"Zog", "Lyra"}, state.CharactersOf("100"))
		assert.Equal(t, fixture.UserDefault, state.UserDefault)
		assert.Len(t, state.Characters, 2)
	})

	t.Run("removing the last character clears the user", func(t *testing.T) {
		state, err := repo.Load(ctx, "campaign")
		require.NoError(t, err)

		state.RemoveCharacter("100", "Zog")
		state.RemoveCharacter("100", "Lyra")
		require.NoError(t, repo.Save(ctx, "campaign", state))

		reloaded, err := repo.Load(ctx, "campaign")
		require.NoError(t, err)
		assert.Empty(t, reloaded.Characters)
		assert.Empty(t, reloaded.UserToCharacters)
		assert.Empty(t, reloaded.UserDefault)
	})
}
