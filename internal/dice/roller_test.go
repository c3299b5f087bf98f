package dice_test

import (
	"testing"

	"github.com/KirkDiggler/rpg-helper-bot/internal/dice"
	mockdice "github.com/KirkDiggler/rpg-helper-bot/internal/dice/mock"
	dnderr "github.com/KirkDiggler/rpg-helper-bot/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Evaluate(t *testing.T) {
	tests := []struct {
		name          string
		expression    string
		setupRolls    []int
		wantTotal     int
		wantEffective []int
		wantString    string
	}{
		{
			name:          "plain roll keeps primary",
			expression:    "2d6+3",
			setupRolls:    []int{4, 5, 6, 6},
			wantTotal:     12, // 4+5+3
			wantEffective: []int{4, 5},
			wantString:    "[4, 5]\nTotal: 12",
		},
		{
			name:          "advantage takes higher secondary",
			expression:    "d20+2 A",
			setupRolls:    []int{8, 17},
			wantTotal:     19,
			wantEffective: []int{17},
			wantString:    "[8], [17]\nTotal (ADV): 19",
		},
		{
			name:          "advantage keeps higher primary",
			expression:    "d20 A",
			setupRolls:    []int{15, 3},
			wantTotal:     15,
			wantEffective: []int{15},
			wantString:    "[15], [3]\nTotal (ADV): 15",
		},
		{
			name:          "advantage tie keeps primary",
			expression:    "2d6 A",
			setupRolls:    []int{1, 6, 6, 1},
			wantTotal:     7,
			wantEffective: []int{1, 6},
			wantString:    "[1, 6], [6, 1]\nTotal (ADV): 7",
		},
		{
			name:          "disadvantage takes lower secondary",
			expression:    "d20-1 D",
			setupRolls:    []int{17, 8},
			wantTotal:     7,
			wantEffective: []int{8},
			wantString:    "[17], [8]\nTotal (DISADV): 7",
		},
		{
			name:          "disadvantage tie keeps primary",
			expression:    "2d4 D",
			setupRolls:    []int{3, 1, 2, 2},
			wantTotal:     4,
			wantEffective: []int{3, 1},
			wantString:    "[3, 1], [2, 2]\nTotal (DISADV): 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetRolls(tt.setupRolls)
			engine := dice.NewEngine(&dice.EngineConfig{Roller: roller})

			result, err := engine.Evaluate(tt.expression)
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantEffective, result.Effective)
			assert.Equal(t, tt.wantString, result.String())
			assert.Zero(t, roller.Remaining(), "secondary set is always drawn")
		})
	}
}

func TestEngine_EvaluateParseFailureRollsNothing(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{1})
	engine := dice.NewEngine(&dice.EngineConfig{Roller: roller})

	_, err := engine.Evaluate("fireball")
	require.Error(t, err)
	assert.True(t, dnderr.IsInvalidArgument(err))
	assert.Equal(t, 1, roller.Remaining())
}

func TestEngine_EvaluateRollerFailure(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{7})
	engine := dice.NewEngine(&dice.EngineConfig{Roller: roller})

	_, err := engine.Evaluate("d6")
	require.Error(t, err)
	assert.Equal(t, dnderr.CodeInternal, dnderr.GetCode(err))
}

func TestEngine_RandomTotalsStayInRange(t *testing.T) {
	engine := dice.NewEngine(nil)

	for i := 0; i < 500; i++ {
		result, err := engine.Evaluate("3d6")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Total, 3)
		assert.LessOrEqual(t, result.Total, 18)
		assert.Len(t, result.Primary, 3)
		assert.Len(t, result.Secondary, 3)
	}

	for i := 0; i < 200; i++ {
		result, err := engine.Evaluate("d20+3")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Total, 4)
		assert.LessOrEqual(t, result.Total, 23)
	}
}

func TestEngine_AdvantageIsMaxDisadvantageIsMin(t *testing.T) {
	engine := dice.NewEngine(nil)

	sumOf := func(rolls []int) int {
		total := 0
		for _, r := range rolls {
			total += r
		}
		return total
	}

	for i := 0; i < 200; i++ {
		adv, err := engine.Evaluate("2d10 A")
		require.NoError(t, err)
		assert.Equal(t, max(sumOf(adv.Primary), sumOf(adv.Secondary)), adv.Total)

		dis, err := engine.Evaluate("2d10 D")
		require.NoError(t, err)
		assert.Equal(t, min(sumOf(dis.Primary), sumOf(dis.Secondary)), dis.Total)
	}
}

func TestRandomRoller_BasicFunctionality(t *testing.T) {
	roller := dice.NewRandomRoller()

	rolls, err := roller.Roll(10, 4)
	require.NoError(t, err)
	assert.Len(t, rolls, 10)
	for _, roll := range rolls {
		assert.GreaterOrEqual(t, roll, 1)
		assert.LessOrEqual(t, roll, 4)
	}

	rolls, err = roller.Roll(0, 6)
	require.NoError(t, err)
	assert.Empty(t, rolls)

	_, err = roller.Roll(1, 0)
	assert.Error(t, err)
}

func TestMockRoller_RejectsImpossibleRolls(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{7})

	_, err := roller.Roll(1, 6)
	assert.Error(t, err)

	_, err = roller.Roll(1, 6)
	assert.Error(t, err, "queue is exhausted")
}
