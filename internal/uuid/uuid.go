// Package uuid hands out request ids behind an interface so tests can pin them
package uuid

//go:generate mockgen -destination=mocks/mock_generator.go -package=mocks -source=uuid.go

import (
	"github.com/google/uuid"
)

// Generator creates unique identifiers
type Generator interface {
	New() string
}

// RequestIDGenerator returns short request ids, the first block of a random UUID
type RequestIDGenerator struct{}

// New generates an eight character request id
func (g *RequestIDGenerator) New() string {
	return uuid.NewString()[:8]
}

// NewRequestIDGenerator creates a RequestIDGenerator
func NewRequestIDGenerator() *RequestIDGenerator {
	return &RequestIDGenerator{}
}
