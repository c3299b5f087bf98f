package dice

import (
	"regexp"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

// MaxDice caps how many dice a single expression may roll
const MaxDice = 100

// Usage is the hint shown when an expression cannot be parsed
const Usage = "Unknown command: Eg: !roll 4d6+2"

// Modifier is the optional advantage/disadvantage tag of an expression
type Modifier string

const (
	ModifierNone         Modifier = ""
	ModifierAdvantage    Modifier = "A"
	ModifierDisadvantage Modifier = "D"
)

// Label is the tag printed in the result, ADV or DISADV
func (m Modifier) Label() string {
	switch m {
	case ModifierAdvantage:
		return "ADV"
	case ModifierDisadvantage:
		return "DISADV"
	}
	return ""
}

var (
	expressionPattern = regexp.MustCompile(`^\s*(\d*)d(\d+)\s*((?:[+\-]\s*\d+\s*)*?)(?:\s+([AD]))?\s*$`)
	constantPattern   = regexp.MustCompile(`[+\-]\s*\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Expression is a parsed `NdS+C... [A|D]` roll
type Expression struct {
	// Raw is the literal input
	Raw       string
	Count     int
	Sides     int
	Constants []int
	Modifier  Modifier
}

// Bonus is the sum of the constant terms
func (e *Expression) Bonus() int {
	bonus := 0
	for _, c := range e.Constants {
		bonus += c
	}
	return bonus
}

// ParseExpression parses a concrete dice expression such as "2d6+3 - 1 A"
func ParseExpression(raw string) (*Expression, error) {
	match := expressionPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil, parseFailure(raw, "expression does not match")
	}

	count := 1
	if match[1] != "" {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, parseFailure(raw, "invalid dice count")
		}
		count = n
	}
	if count > MaxDice {
		return nil, parseFailure(raw, "too many dice")
	}

	sides, err := strconv.Atoi(match[2])
	if err != nil || sides < 1 {
		return nil, parseFailure(raw, "invalid dice size")
	}

	var constants []int
	for _, term := range constantPattern.FindAllString(match[3], -1) {
		value, err := strconv.Atoi(whitespacePattern.ReplaceAllString(term, ""))
		if err != nil {
			return nil, parseFailure(raw, "invalid constant")
		}
		constants = append(constants, value)
	}

	return &Expression{
		Raw:       raw,
		Count:     count,
		Sides:     sides,
		Constants: constants,
		Modifier:  Modifier(match[4]),
	}, nil
}

func parseFailure(raw, reason string) error {
	return dnderr.InvalidArgument(Usage).
		WithMeta("expression", strings.TrimSpace(raw)).
		WithMeta("reason", reason)
}
