package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// sampling. A chain draws every random number (proposal shuffle, Metropolis
// accept draw) from a single stream, so a fixed seed reproduces an identical
// trace bit-for-bit given identical inputs.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(name string, seed int64) *rand.Rand

	// ChainStream creates the stream owned by one chain. Distinct chain
	// indices under the same base seed yield disjoint streams.
	ChainStream(chain int, baseSeed int64) *rand.Rand
}
