package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic generator for a named purpose; the same
	// name and seed always yield the same sequence
	Stream(name string, seed int64) *rand.Rand
}
