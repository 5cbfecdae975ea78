package mcmc

import (
	"hash/fnv"
	"math/rand"
	"strconv"

	"goebm/ports"
)

// SeededRNG implements ports.RNGPort. Stream seeds mix the caller's base
// seed with an FNV hash of the stream name, so named streams are disjoint
// but fully reproducible.
type SeededRNG struct{}

// NewSeededRNG creates the deterministic RNG provider.
func NewSeededRNG() *SeededRNG {
	return &SeededRNG{}
}

// SeededStream creates a deterministic RNG for a named operation.
func (r *SeededRNG) SeededStream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// ChainStream creates the stream owned by one chain.
func (r *SeededRNG) ChainStream(chain int, baseSeed int64) *rand.Rand {
	return r.SeededStream("chain-"+strconv.Itoa(chain), baseSeed)
}

var _ ports.RNGPort = (*SeededRNG)(nil)
