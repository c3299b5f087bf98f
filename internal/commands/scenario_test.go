package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/KirkDiggler/rpg-helper-bot/internal/commands"
	mockdice "github.com/KirkDiggler/rpg-helper-bot/internal/dice/mock"
	"github.com/KirkDiggler/rpg-helper-bot/internal/repositories/games"
	gameService "github.com/KirkDiggler/rpg-helper-bot/internal/services/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMacros = `{
    "atk": "d20{strmod}{proficiency}{adv_or_disadv}",
    "init": "d20{dexmod}"
}`

// newFileRouter builds the full stack over a temp games directory
func newFileRouter(t *testing.T, roller *mockdice.ManualMockRoller) (*commands.Router, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "campaign"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "campaign", games.MacrosFile), []byte(testMacros), 0o644))

	cfg := &gameService.ServiceConfig{
		Repository: games.NewFileRepository(&games.FileRepoConfig{Root: root}),
	}
	if roller != nil {
		cfg.Roller = roller
	}

	return commands.New(&commands.RouterConfig{Service: gameService.NewService(cfg)}), root
}

func send(t *testing.T, r *commands.Router, userID, text string) string {
	t.Helper()
	reply, ok := r.HandleCommand(context.Background(), userID, text)
	require.True(t, ok, text)
	return reply
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}

func TestScenario_LoadTwice(t *testing.T) {
	router, root := newFileRouter(t, nil)
	dir := filepath.Join(root, "campaign")

	assert.Equal(t, "New game `campaign` loaded", send(t, router, "100", "!load campaign"))
	before := snapshot(t, dir)

	assert.Equal(t, "Game `campaign` was replaced with game `campaign`", send(t, router, "100", "!load campaign"))
	assert.Equal(t, before, snapshot(t, dir))
}

func TestScenario_LoadMissingGame(t *testing.T) {
	router, _ := newFileRouter(t, nil)

	assert.Equal(t, "Game path `nowhere` does not exist", send(t, router, "100", "!load nowhere"))
	assert.Equal(t, "No game has been loaded. Load using command `!load <game>`", send(t, router, "100", "!roll d20"))
}

func TestScenario_RollWithoutCharacters(t *testing.T) {
	router, _ := newFileRouter(t, nil)
	send(t, router, "100", "!load campaign")

	totalPattern := regexp.MustCompile("Total: (\\d+)```$")
	for i := 0; i < 50; i++ {
		reply := send(t, router, "100", "!roll d20+3")
		assert.Contains(t, reply, "<@100> rolled `d20+3` for UNKNOWN")

		match := totalPattern.FindStringSubmatch(reply)
		require.NotNil(t, match, reply)
		total, err := strconv.Atoi(match[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, 4)
		assert.LessOrEqual(t, total, 23)
	}
}

func TestScenario_AddReloadAndRollMacro(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	router, root := newFileRouter(t, roller)

	send(t, router, "100", "!load campaign")
	assert.Equal(t, "Successfully created character Zog for <@100>",
		send(t, router, "100", "!character add Zog 14,12,10,10,10,10 atk 10 1"))

	// a fresh process sees the persisted character
	router2, _ := newFileRouterAt(t, root, roller)
	send(t, router2, "100", "!load campaign")

	roller.SetRolls([]int{11, 3})
	assert.Equal(t, "<@100> rolled `d20+2+2` for Zog\n```[11]\nTotal: 15```",
		send(t, router2, "100", "!roll atk"))

	roller.SetRolls([]int{11, 3})
	assert.Equal(t, "<@100> rolled `d20+1` for Zog\n```[11]\nTotal: 12```",
		send(t, router2, "100", "!roll init"))

	send(t, router2, "200", "!character add Grim 10,10,10,10,10,10 none 8 1")
	assert.Equal(t, "<@200> cannot roll for Zog", send(t, router2, "200", "!roll Zog atk"))
}

func TestScenario_DeleteWithoutCharactersWritesNothing(t *testing.T) {
	router, root := newFileRouter(t, nil)
	dir := filepath.Join(root, "campaign")
	send(t, router, "100", "!load campaign")
	before := snapshot(t, dir)

	assert.Equal(t, "<@100> does not have characters.", send(t, router, "100", "!character del Zog"))
	assert.Equal(t, before, snapshot(t, dir))
}

func newFileRouterAt(t *testing.T, root string, roller *mockdice.ManualMockRoller) (*commands.Router, string) {
	t.Helper()
	svc := gameService.NewService(&gameService.ServiceConfig{
		Repository: games.NewFileRepository(&games.FileRepoConfig{Root: root}),
		Roller:     roller,
	})
	return commands.New(&commands.RouterConfig{Service: svc}), root
}
