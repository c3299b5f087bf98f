package testutils

import (
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/game"
)

// CreateTestCharacter creates a level 1 character with a full stat line
func CreateTestCharacter(name string) *character.Character {
	return character.NewCharacter(&character.Config{
		Name:    name,
		Level:   1,
		HitDice: 10,
		Scores: map[character.Ability]int{
			character.AbilityStrength:     14,
			character.AbilityDexterity:    12,
			character.AbilityConstitution: 13,
			character.AbilityIntelligence: 10,
			character.AbilityWisdom:       8,
			character.AbilityCharisma:     15,
		},
		ProficientRolls: []string{"atk"},
	})
}

// CreateTestMacros returns a small macro dictionary covering the common placeholders
func CreateTestMacros() map[string]string {
	return map[string]string{
		"atk":     "d20{strmod}{proficiency}{adv_or_disadv}",
		"stealth": "d20{dexmod}{proficiency}{adv_or_disadv}",
		"init":    "d20{dexmod}",
	}
}

// CreateTestGame builds a game where userID owns a single character
func CreateTestGame(userID, characterName string) *game.State {
	state := game.NewState()
	state.Macros = CreateTestMacros()
	state.PutCharacter(userID, CreateTestCharacter(characterName))
	return state
}
