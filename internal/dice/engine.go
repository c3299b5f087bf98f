package dice

import (
	"fmt"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
)

// RollResult is an evaluated expression
type RollResult struct {
	Expression *Expression

	// Primary and Secondary are always both drawn
	Primary   []int
	Secondary []int

	// Effective is the set that counted towards Total
	Effective []int
	Total     int
}

// EngineConfig holds the dependencies of an Engine
type EngineConfig struct {
	Roller Roller
}

// Engine parses and evaluates roll expressions
type Engine struct {
	roller Roller
}

// NewEngine creates an engine. A nil config or roller falls back to random rolls.
func NewEngine(cfg *EngineConfig) *Engine {
	roller := Roller(nil)
	if cfg != nil {
		roller = cfg.Roller
	}
	if roller == nil {
		roller = NewRandomRoller()
	}

	return &Engine{roller: roller}
}

// Evaluate parses the expression and rolls it.
// A malformed expression returns an invalid argument error carrying Usage.
func (e *Engine) Evaluate(expression string) (*RollResult, error) {
	expr, err := ParseExpression(expression)
	if err != nil {
		return nil, err
	}

	primary, err := e.roller.Roll(expr.Count, expr.Sides)
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to roll dice")
	}

	secondary, err := e.roller.Roll(expr.Count, expr.Sides)
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to roll dice")
	}

	effective := primary
	switch expr.Modifier {
	case ModifierAdvantage:
		if sum(secondary) > sum(primary) {
			effective = secondary
		}
	case ModifierDisadvantage:
		if sum(secondary) < sum(primary) {
			effective = secondary
		}
	}

	return &RollResult{
		Expression: expr,
		Primary:    primary,
		Secondary:  secondary,
		Effective:  effective,
		Total:      sum(effective) + expr.Bonus(),
	}, nil
}

// String renders the rolled sets and total, e.g.
//
//	[3, 5]
//	Total: 11
func (r *RollResult) String() string {
	if r.Expression.Modifier == ModifierNone {
		return fmt.Sprintf("%s\nTotal: %d", formatRolls(r.Primary), r.Total)
	}

	return fmt.Sprintf("%s, %s\nTotal (%s): %d",
		formatRolls(r.Primary),
		formatRolls(r.Secondary),
		r.Expression.Modifier.Label(),
		r.Total)
}

func formatRolls(rolls []int) string {
	parts := make([]string, len(rolls))
	for i, roll := range rolls {
		parts[i] = strconv.Itoa(roll)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sum(rolls []int) int {
	total := 0
	for _, roll := range rolls {
		total += roll
	}
	return total
}
