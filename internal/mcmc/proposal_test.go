package mcmc

import (
	"math/rand"
	"sort"
	"testing"

	"goebm/domain/ebm"
)

func TestNewProposer(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewProposer(1, rng); err == nil {
		t.Error("Expected error for n_shuffle < 2")
	}
	if _, err := NewProposer(2, rng); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestProposeDerangesSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	current := ebm.Order{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6}

	for _, nShuffle := range []int{2, 3, 4} {
		proposer, err := NewProposer(nShuffle, rng)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i := 0; i < 500; i++ {
			candidate := proposer.Propose(current)
			if err := candidate.Validate(); err != nil {
				t.Fatalf("n_shuffle=%d draw %d: invalid candidate: %v", nShuffle, i, err)
			}
			// Stages within a valid order are distinct, so a cycle over the
			// selected subset changes exactly that many positions.
			if changed := countChanged(current, candidate); changed != nShuffle {
				t.Fatalf("n_shuffle=%d draw %d: %d positions changed", nShuffle, i, changed)
			}
		}
	}
}

func TestProposeFullDerangement(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	current := ebm.Order{"A": 1, "B": 2, "C": 3, "D": 4}

	// n_shuffle >= N deranges the whole order; the identity must never come
	// back and every position must move.
	proposer, err := NewProposer(10, rng)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		candidate := proposer.Propose(current)
		if candidate.Equal(current) {
			t.Fatalf("Draw %d returned the identity proposal", i)
		}
		if changed := countChanged(current, candidate); changed != len(current) {
			t.Fatalf("Draw %d left %d positions fixed", i, len(current)-changed)
		}
	}
}

func TestProposeDoesNotMutateCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	current := ebm.Order{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}
	snapshot := current.Clone()

	proposer, _ := NewProposer(3, rng)
	for i := 0; i < 100; i++ {
		proposer.Propose(current)
	}
	if !current.Equal(snapshot) {
		t.Error("Propose mutated the current order")
	}
}

func TestProposePreservesStageSet(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	current := ebm.Order{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}

	proposer, _ := NewProposer(2, rng)
	for i := 0; i < 200; i++ {
		candidate := proposer.Propose(current)
		if !sameStageSet(current, candidate) {
			t.Fatalf("Draw %d changed the stage multiset", i)
		}
	}
}

func countChanged(a, b ebm.Order) int {
	changed := 0
	for bm, stage := range a {
		if b[bm] != stage {
			changed++
		}
	}
	return changed
}

func sameStageSet(a, b ebm.Order) bool {
	sa := stagesOf(a)
	sb := stagesOf(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func stagesOf(o ebm.Order) []int {
	out := make([]int, 0, len(o))
	for _, s := range o {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}
