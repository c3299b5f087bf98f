package macro

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

// UnknownCharacter labels rolls made by users without characters
const UnknownCharacter = "UNKNOWN"

var tagPattern = regexp.MustCompile(`(?s)^(.*?)(\s+[AD])?$`)

// StateReader is the read side of the game state the resolver needs
type StateReader interface {
	// CharactersOf returns the ordered character names owned by the user
	CharactersOf(userID string) []string

	// DefaultOf returns the user's default character
	DefaultOf(userID string) (string, bool)

	// Character looks up a character by name
	Character(name string) (*character.Character, bool)

	// Owns reports whether the user owns the character
	Owns(userID, name string) bool

	// Macro looks up a game-wide macro
	Macro(name string) (string, bool)
}

// Resolution is the concrete roll after macro expansion
type Resolution struct {
	// Character is the key the acting character is stored under
	Character string

	// Expression is what the dice engine should evaluate
	Expression string

	// Macro is the macro key that was expanded, empty when none matched
	Macro string
}

// Resolve picks the acting character for a roll and expands a macro if the
// text names one. Users without characters get the text back untouched.
func Resolve(state StateReader, userID, text string) (*Resolution, error) {
	if len(state.CharactersOf(userID)) == 0 {
		return &Resolution{
			Character:  UnknownCharacter,
			Expression: text,
		}, nil
	}

	name, _ := state.DefaultOf(userID)
	parts := strings.Fields(text)
	if len(parts) > 0 {
		if _, exists := state.Character(parts[0]); exists {
			if !state.Owns(userID, parts[0]) {
				return nil, dnderr.PermissionDeniedf("<@%s> cannot roll for %s", userID, parts[0]).
					WithMeta("user_id", userID).
					WithMeta("character", parts[0])
			}
			name = parts[0]
			text = strings.Join(parts[1:], " ")
		}
	}

	char, ok := state.Character(name)
	if !ok {
		return nil, dnderr.NotFoundf("<@%s> default character %s no longer exists", userID, name).
			WithMeta("user_id", userID)
	}

	key, tag := splitTag(text)

	template, found := char.Macro(key)
	if !found {
		template, found = state.Macro(key)
	}
	if !found {
		return &Resolution{
			Character:  name,
			Expression: text,
		}, nil
	}

	fields := char.Fields()
	fields[FieldProficiency] = ""
	if char.IsProficient(key) {
		fields[FieldProficiency] = char.Proficiency()
	}
	fields[FieldAdvOrDisadv] = tag

	expression, err := Expand(template, fields)
	if err != nil {
		return nil, dnderr.InvalidArgumentf("<@%s> macro `%s` is broken: %v", userID, key, err).
			WithMeta("macro", key)
	}

	return &Resolution{
		Character:  name,
		Expression: expression,
		Macro:      key,
	}, nil
}

// splitTag separates a trailing " A" or " D" from the macro key.
// The returned tag keeps its leading whitespace.
func splitTag(text string) (key, tag string) {
	match := tagPattern.FindStringSubmatch(text)
	if match == nil {
		return text, ""
	}
	return strings.TrimSpace(match[1]), match[2]
}
