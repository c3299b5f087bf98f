package macro_test

import (
	"testing"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	"github.com/KirkDiggler/rpg-helper-bot/internal/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeState struct {
	characters map[string]*character.Character
	owners     map[string][]string
	defaults   map[string]string
	macros     map[string]string
}

func (f *fakeState) CharactersOf(userID string) []string {
	return f.owners[userID]
}

func (f *fakeState) DefaultOf(userID string) (string, bool) {
	name, ok := f.defaults[userID]
	return name, ok
}

func (f *fakeState) Character(name string) (*character.Character, bool) {
	c, ok := f.characters[name]
	return c, ok
}

func (f *fakeState) Owns(userID, name string) bool {
	for _, owned := range f.owners[userID] {
		if owned == name {
			return true
		}
	}
	return false
}

func (f *fakeState) Macro(name string) (string, bool) {
	template, ok := f.macros[name]
	return template, ok
}

type ResolverTestSuite struct {
	suite.Suite
	state *fakeState
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func (s *ResolverTestSuite) SetupTest() {
	zog := character.NewCharacter(&character.Config{
		Name:  "Zog",
		Level: 1,
		Scores: map[character.Ability]int{
			character.AbilityStrength:  14,
			character.AbilityDexterity: 8,
		},
		ProficientRolls: []string{"atk"},
		Macros:          map[string]string{"rage": "d12{strmod}"},
	})
	lyra := character.NewCharacter(&character.Config{
		Name:  "Lyra",
		Level: 9,
		Scores: map[character.Ability]int{
			character.AbilityStrength:  10,
			character.AbilityDexterity: 18,
		},
		ProficientRolls: []string{"stealth"},
	})
	grim := character.NewCharacter(&character.Config{Name: "Grim", Level: 3})

	s.state = &fakeState{
		characters: map[string]*character.Character{"Zog": zog, "Lyra": lyra, "Grim": grim},
		owners: map[string][]string{
			"100": {"Zog", "Lyra"},
			"200": {"Grim"},
		},
		defaults: map[string]string{"100": "Zog", "200": "Grim"},
		macros: map[string]string{
			"atk":     "d20{strmod}{proficiency}{adv_or_disadv}",
			"stealth": "d20{dexmod}{proficiency}{adv_or_disadv}",
			"broken":  "d20{luck}",
		},
	}
}

func (s *ResolverTestSuite) TestUserWithoutCharactersPassesThrough() {
	res, err := macro.Resolve(s.state, "999", "d20+3")
	s.Require().NoError(err)
	s.Equal(macro.UnknownCharacter, res.Character)
	s.Equal("d20+3", res.Expression)
}

func (s *ResolverTestSuite) TestDefaultCharacterMacro() {
	res, err := macro.Resolve(s.state, "100", "atk")
	s.Require().NoError(err)
	s.Equal("Zog", res.Character)
	s.Equal("d20+2+2", res.Expression)
	s.Equal("atk", res.Macro)
}

func (s *ResolverTestSuite) TestAdvantageTagIsForwarded() {
	res, err := macro.Resolve(s.state, "100", "atk A")
	s.Require().NoError(err)
	s.Equal("d20+2+2 A", res.Expression)

	res, err = macro.Resolve(s.state, "100", "atk D")
	s.Require().NoError(err)
	s.Equal("d20+2+2 D", res.Expression)
}

func (s *ResolverTestSuite) TestProficiencyOnlyWhenProficient() {
	res, err := macro.Resolve(s.state, "100", "stealth")
	s.Require().NoError(err)
	s.Equal("d20-1", res.Expression)
}

func (s *ResolverTestSuite) TestExplicitCharacterSelection() {
	res, err := macro.Resolve(s.state, "100", "Lyra stealth A")
	s.Require().NoError(err)
	s.Equal("Lyra", res.Character)
	s.Equal("d20+4+4 A", res.Expression)
}

func (s *ResolverTestSuite) TestExplicitCharacterWithLiteralRoll() {
	res, err := macro.Resolve(s.state, "100", "Lyra   2d6  +1")
	s.Require().NoError(err)
	s.Equal("Lyra", res.Character)
	s.Equal("2d6 +1", res.Expression)
}

func (s *ResolverTestSuite) TestCharacterMacroWinsOverGameMacro() {
	s.state.macros["rage"] = "d4"

	res, err := macro.Resolve(s.state, "100", "rage")
	s.Require().NoError(err)
	s.Equal("d12+2", res.Expression)
}

func (s *ResolverTestSuite) TestUnknownMacroPassesThroughWithTag() {
	res, err := macro.Resolve(s.state, "100", "d20+5 A")
	s.Require().NoError(err)
	s.Equal("Zog", res.Character)
	s.Equal("d20+5 A", res.Expression)
	s.Empty(res.Macro)
}

func (s *ResolverTestSuite) TestLabelIsTheStoredKey() {
	s.state.characters["Zog"] = character.NewCharacter(&character.Config{
		Level:  1,
		Scores: map[character.Ability]int{character.AbilityStrength: 14},
	})

	res, err := macro.Resolve(s.state, "100", "d20")
	s.Require().NoError(err)
	s.Equal("Zog", res.Character)

	res, err = macro.Resolve(s.state, "100", "Lyra d20")
	s.Require().NoError(err)
	s.Equal("Lyra", res.Character)
}

func (s *ResolverTestSuite) TestRollingForSomeoneElseIsDenied() {
	_, err := macro.Resolve(s.state, "100", "Grim atk")
	s.Require().Error(err)
	s.True(dnderr.IsPermissionDenied(err))

	msg, ok := dnderr.UserMessage(err)
	s.True(ok)
	s.Equal("<@100> cannot roll for Grim", msg)
}

func (s *ResolverTestSuite) TestUserWithoutCharactersMayNameAnyone() {
	res, err := macro.Resolve(s.state, "999", "Grim atk")
	s.Require().NoError(err)
	s.Equal("Grim atk", res.Expression)
}

func (s *ResolverTestSuite) TestBrokenMacro() {
	_, err := macro.Resolve(s.state, "100", "broken")
	s.Require().Error(err)
	s.True(dnderr.IsInvalidArgument(err))
	s.Contains(err.Error(), "`luck`")
}

func (s *ResolverTestSuite) TestDanglingDefault() {
	s.state.defaults["200"] = "Ghost"

	_, err := macro.Resolve(s.state, "200", "atk")
	s.Require().Error(err)
	s.True(dnderr.IsNotFound(err))
}

func TestResolve_EmptyText(t *testing.T) {
	state := &fakeState{
		characters: map[string]*character.Character{
			"Zog": character.NewCharacter(&character.Config{Name: "Zog"}),
		},
		owners:   map[string][]string{"1": {"Zog"}},
		defaults: map[string]string{"1": "Zog"},
	}

	res, err := macro.Resolve(state, "1", "")
	require.NoError(t, err)
	assert.Equal(t, "Zog", res.Character)
	assert.Equal(t, "", res.Expression)
}
