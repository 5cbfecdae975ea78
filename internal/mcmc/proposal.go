package mcmc

import (
	"math/rand"

	"goebm/domain/ebm"
	"goebm/internal/errors"
)

// Proposer perturbs the current order by deranging the stage assignments of
// a randomly selected subset of biomarkers. Every selected position's stage
// changes; positions outside the subset are untouched. An arbitrary shuffle
// of the subset would too often reproduce a near-identity permutation and
// stall exploration, so the shuffle is a Sattolo cycle, which has no fixed
// points by construction.
type Proposer struct {
	nShuffle int
	rng      *rand.Rand
}

// NewProposer creates a proposer. nShuffle must be at least 2: a single
// position cannot be deranged.
func NewProposer(nShuffle int, rng *rand.Rand) (*Proposer, error) {
	if nShuffle < 2 {
		return nil, errors.ConfigInvalid("n_shuffle must be >= 2 to produce a derangement")
	}
	return &Proposer{nShuffle: nShuffle, rng: rng}, nil
}

// Propose returns a candidate order derived from current. The candidate is a
// fresh copy; current is never mutated. When nShuffle >= N the whole order is
// deranged; the algorithm is identical either way.
func (p *Proposer) Propose(current ebm.Order) ebm.Order {
	candidate := current.Clone()
	bms := current.Biomarkers()

	k := p.nShuffle
	if k > len(bms) {
		k = len(bms)
	}

	perm := p.rng.Perm(len(bms))
	selected := make([]ebm.Biomarker, k)
	stages := make([]int, k)
	for i := 0; i < k; i++ {
		selected[i] = bms[perm[i]]
		stages[i] = current[selected[i]]
	}

	// Sattolo's algorithm: a uniformly random cyclic permutation. Stages are
	// distinct within a valid order, so a cycle means every selected
	// biomarker ends up with a different stage.
	for i := k - 1; i > 0; i-- {
		j := p.rng.Intn(i)
		stages[i], stages[j] = stages[j], stages[i]
	}

	for i, bm := range selected {
		candidate[bm] = stages[i]
	}
	return candidate
}
