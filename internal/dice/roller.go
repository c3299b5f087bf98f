package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller draws dice. Implementations only need independent, uniform draws.
// This allows us to inject predetermined rolls in tests.
type Roller interface {
	// Roll draws count values in [1, sides]
	Roll(count, sides int) ([]int, error)
}
