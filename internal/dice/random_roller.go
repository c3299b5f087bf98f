package dice

import (
	"errors"
	"math/rand"
)

// randomRoller implements Roller with math/rand
type randomRoller struct{}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides int) ([]int, error) {
	if count < 0 {
		return nil, errors.New("invalid dice count")
	}

	if sides < 1 {
		return nil, errors.New("invalid dice size")
	}

	out := make([]int, count)
	for i := range out {
		out[i] = rand.Intn(sides) + 1
	}

	return out, nil
}
