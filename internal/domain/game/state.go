package game

import (
	"github.com/KirkDiggler/rpg-helper-bot/internal/domain/character"
)

// State is everything a loaded game knows: characters, who owns them,
// each user's default character and the game-wide macro dictionary.
type State struct {
	// Characters maps a unique character name to its stat record
	Characters map[string]*character.Character

	// UserToCharacters maps a user ID to the ordered names they own
	UserToCharacters map[string][]string

	// UserDefault maps a user ID to the character used when none is named
	UserDefault map[string]string

	// Macros maps a macro name to its template
	Macros map[string]string
}

// NewState returns an empty state with all maps allocated
func NewState() *State {
	return &State{
		Characters:       make(map[string]*character.Character),
		UserToCharacters: make(map[string][]string),
		UserDefault:      make(map[string]string),
		Macros:           make(map[string]string),
	}
}

// Normalize allocates any nil map, e.g. after decoding partial data
func (s *State) Normalize() *State {
	if s.Characters == nil {
		s.Characters = make(map[string]*character.Character)
	}
	if s.UserToCharacters == nil {
		s.UserToCharacters = make(map[string][]string)
	}
	if s.UserDefault == nil {
		s.UserDefault = make(map[string]string)
	}
	if s.Macros == nil {
		s.Macros = make(map[string]string)
	}
	return s
}

// Clone copies the maps and slices. Characters are immutable and shared.
func (s *State) Clone() *State {
	out := NewState()
	for name, c := range s.Characters {
		out.Characters[name] = c
	}
	for user, names := range s.UserToCharacters {
		out.UserToCharacters[user] = append([]string(nil), names...)
	}
	for user, name := range s.UserDefault {
		out.UserDefault[user] = name
	}
	for name, template := range s.Macros {
		out.Macros[name] = template
	}
	return out
}

// CharactersOf returns the ordered character names owned by the user
func (s *State) CharactersOf(userID string) []string {
	return append([]string(nil), s.UserToCharacters[userID]...)
}

// DefaultOf returns the user's default character
func (s *State) DefaultOf(userID string) (string, bool) {
	name, ok := s.UserDefault[userID]
	return name, ok
}

// Character looks up a character by name
func (s *State) Character(name string) (*character.Character, bool) {
	c, ok := s.Characters[name]
	return c, ok
}

// Owns reports whether the user owns the named character
func (s *State) Owns(userID, name string) bool {
	for _, owned := range s.UserToCharacters[userID] {
		if owned == name {
			return true
		}
	}
	return false
}

// OwnerOf finds the user that owns a character
func (s *State) OwnerOf(name string) (string, bool) {
	for user := range s.UserToCharacters {
		if s.Owns(user, name) {
			return user, true
		}
	}
	return "", false
}

// Macro looks up a game-wide macro
func (s *State) Macro(name string) (string, bool) {
	template, ok := s.Macros[name]
	return template, ok
}

// PutCharacter stores the character for its owner. The owner keeps a single
// ownership entry per name and gets a default if they had none.
func (s *State) PutCharacter(userID string, c *character.Character) {
	name := c.Name()
	s.Characters[name] = c

	if !s.Owns(userID, name) {
		s.UserToCharacters[userID] = append(s.UserToCharacters[userID], name)
	}
	if _, ok := s.UserDefault[userID]; !ok {
		s.UserDefault[userID] = name
	}
}

// RemoveCharacter deletes the character and fixes up ownership. When the
// user has no characters left both their list and default are removed; when
// the default was deleted the first remaining character becomes the default.
func (s *State) RemoveCharacter(userID, name string) {
	delete(s.Characters, name)

	owned := s.UserToCharacters[userID]
	remaining := make([]string, 0, len(owned))
	for _, n := range owned {
		if n != name {
			remaining = append(remaining, n)
		}
	}

	if len(remaining) == 0 {
		delete(s.UserToCharacters, userID)
		delete(s.UserDefault, userID)
		return
	}

	s.UserToCharacters[userID] = remaining
	if s.UserDefault[userID] == name {
		s.UserDefault[userID] = remaining[0]
	}
}
