package character

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ability is one of the six raw ability score keys of a stat record
type Ability string

const (
	AbilityStrength     Ability = "str"
	AbilityDexterity    Ability = "dex"
	AbilityConstitution Ability = "con"
	AbilityIntelligence Ability = "int"
	AbilityWisdom       Ability = "wis"
	AbilityCharisma     Ability = "cha"
)

// Abilities lists the abilities in the order `character add` expects them
var Abilities = []Ability{
	AbilityStrength,
	AbilityDexterity,
	AbilityConstitution,
	AbilityIntelligence,
	AbilityWisdom,
	AbilityCharisma,
}

// ModifierKey is the derived record key for the ability, e.g. "strmod"
func (a Ability) ModifierKey() string {
	return string(a) + "mod"
}

// Record keys other than the abilities
const (
	KeyName            = "name"
	KeyLevel           = "level"
	KeyHitDice         = "hitdice"
	KeyProficientRolls = "proficient_rolls"
	KeyMacros          = "macros"
)

// Config holds everything needed to build a Character.
// Derived modifiers are not part of it; they are always computed.
type Config struct {
	Name            string
	Level           int
	HitDice         int
	Scores          map[Ability]int
	ProficientRolls []string
	Macros          map[string]string

	// Extra carries record keys this package does not know about so they survive a save
	Extra map[string]json.RawMessage
}

// Character is an immutable stat record
type Character struct {
	name            string
	level           int
	hitDice         int
	scores          map[Ability]int
	modifiers       map[Ability]string
	proficientRolls []string
	macros          map[string]string
	extra           map[string]json.RawMessage
}

// NewCharacter builds a stat record and derives the ability modifiers once
func NewCharacter(cfg *Config) *Character {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Character{
		name:            cfg.Name,
		level:           cfg.Level,
		hitDice:         cfg.HitDice,
		scores:          make(map[Ability]int, len(cfg.Scores)),
		modifiers:       make(map[Ability]string, len(cfg.Scores)),
		proficientRolls: append([]string(nil), cfg.ProficientRolls...),
		macros:          make(map[string]string, len(cfg.Macros)),
		extra:           make(map[string]json.RawMessage, len(cfg.Extra)),
	}
	if c.level == 0 {
		c.level = 1
	}

	for _, ability := range Abilities {
		score, ok := cfg.Scores[ability]
		if !ok {
			continue
		}
		c.scores[ability] = score
		c.modifiers[ability] = FormatModifier(Modifier(score))
	}
	for name, template := range cfg.Macros {
		c.macros[name] = template
	}
	for key, value := range cfg.Extra {
		c.extra[key] = value
	}

	return c
}

// Modifier returns floor(score/2) - 5
func Modifier(score int) int {
	half := score / 2
	if score < 0 && score%2 != 0 {
		half--
	}
	return half - 5
}

// FormatModifier renders a modifier with an explicit sign for non-negative values
func FormatModifier(mod int) string {
	if mod < 0 {
		return strconv.Itoa(mod)
	}
	return "+" + strconv.Itoa(mod)
}

func (c *Character) Name() string { return c.name }

func (c *Character) Level() int { return c.level }

func (c *Character) HitDice() int { return c.hitDice }

// Score returns the raw ability score if the record has one
func (c *Character) Score(a Ability) (int, bool) {
	score, ok := c.scores[a]
	return score, ok
}

// ModifierOf returns the derived, signed modifier string for an ability
func (c *Character) ModifierOf(a Ability) (string, bool) {
	mod, ok := c.modifiers[a]
	return mod, ok
}

// ProficientRolls returns a copy of the macro names the character is proficient in
func (c *Character) ProficientRolls() []string {
	return append([]string(nil), c.proficientRolls...)
}

// IsProficient reports whether the macro name is listed in proficient_rolls
func (c *Character) IsProficient(macro string) bool {
	for _, name := range c.proficientRolls {
		if name == macro {
			return true
		}
	}
	return false
}

// Macros returns a copy of the per-character macros
func (c *Character) Macros() map[string]string {
	out := make(map[string]string, len(c.macros))
	for k, v := range c.macros {
		out[k] = v
	}
	return out
}

// Macro looks up a per-character macro
func (c *Character) Macro(name string) (string, bool) {
	template, ok := c.macros[name]
	return template, ok
}

// Proficiency returns the proficiency bonus for the character's level
func (c *Character) Proficiency() string {
	return Proficiency(c.level)
}

// Fields renders every record key as a string, keyed by the record key.
// This is the closed set of placeholders a macro template may reference
// besides the synthetic proficiency and adv_or_disadv fields.
func (c *Character) Fields() map[string]string {
	fields := map[string]string{
		KeyName:            c.name,
		KeyLevel:           strconv.Itoa(c.level),
		KeyHitDice:         strconv.Itoa(c.hitDice),
		KeyProficientRolls: strings.Join(c.proficientRolls, ","),
	}

	macros, err := json.Marshal(c.Macros())
	if err == nil {
		fields[KeyMacros] = string(macros)
	}

	for ability, score := range c.scores {
		fields[string(ability)] = strconv.Itoa(score)
		fields[ability.ModifierKey()] = c.modifiers[ability]
	}

	for key, raw := range c.extra {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			fields[key] = s
			continue
		}
		fields[key] = string(raw)
	}

	return fields
}

// MarshalJSON writes the flat record form used by characters.json,
// derived modifier keys included
func (c *Character) MarshalJSON() ([]byte, error) {
	record := make(map[string]any, len(c.extra)+17)
	for key, raw := range c.extra {
		record[key] = raw
	}

	proficient := c.proficientRolls
	if proficient == nil {
		proficient = []string{}
	}

	record[KeyName] = c.name
	record[KeyLevel] = c.level
	record[KeyHitDice] = c.hitDice
	record[KeyProficientRolls] = proficient
	record[KeyMacros] = c.Macros()

	for ability, score := range c.scores {
		record[string(ability)] = score
		record[ability.ModifierKey()] = c.modifiers[ability]
	}

	return json.Marshal(record)
}

// UnmarshalJSON rebuilds the record through NewCharacter.
// Persisted modifier keys are ignored and recomputed.
func (c *Character) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode stat record: %w", err)
	}

	cfg := &Config{
		Scores: make(map[Ability]int),
		Extra:  make(map[string]json.RawMessage),
	}

	derived := make(map[string]bool, len(Abilities))
	for _, ability := range Abilities {
		derived[ability.ModifierKey()] = true
	}

	for key, value := range raw {
		switch {
		case key == KeyName:
			if err := json.Unmarshal(value, &cfg.Name); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		case key == KeyLevel:
			level, err := decodeInt(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			cfg.Level = level
		case key == KeyHitDice:
			hitDice, err := decodeInt(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			cfg.HitDice = hitDice
		case key == KeyProficientRolls:
			if err := json.Unmarshal(value, &cfg.ProficientRolls); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		case key == KeyMacros:
			if err := json.Unmarshal(value, &cfg.Macros); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		case isAbility(key):
			score, err := decodeInt(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			cfg.Scores[Ability(key)] = score
		case derived[key]:
			// always recomputed
		default:
			cfg.Extra[key] = value
		}
	}

	*c = *NewCharacter(cfg)
	return nil
}

func isAbility(key string) bool {
	for _, ability := range Abilities {
		if string(ability) == key {
			return true
		}
	}
	return false
}

// decodeInt accepts integral JSON numbers, including ones written as 12.0
func decodeInt(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}
