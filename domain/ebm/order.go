package ebm

import (
	"fmt"
	"math/rand"
	"sort"
)

// Biomarker identifies a measured quantity whose abnormality is hypothesized
// to follow a fixed temporal order across disease progression.
type Biomarker string

// Order maps each biomarker to the integer stage (1..N) at which it becomes
// abnormal. A valid order is a total bijection: every stage 1..N appears for
// exactly one biomarker. This is the primary latent variable sampled by MCMC.
type Order map[Biomarker]int

// NewRandomOrder draws a uniformly random order over the given biomarkers
// using the provided RNG stream.
func NewRandomOrder(rng *rand.Rand, biomarkers []Biomarker) Order {
	stages := rng.Perm(len(biomarkers))
	order := make(Order, len(biomarkers))
	for i, bm := range biomarkers {
		order[bm] = stages[i] + 1
	}
	return order
}

// Validate checks that the order is a bijection onto {1..N}. It must be
// called before any likelihood computation: a duplicate or missing stage
// would silently route density lookups to the wrong parameters.
func (o Order) Validate() error {
	n := len(o)
	if n == 0 {
		return fmt.Errorf("order is empty")
	}
	seen := make(map[int]Biomarker, n)
	for bm, stage := range o {
		if stage < 1 || stage > n {
			return fmt.Errorf("biomarker %s has stage %d outside 1..%d", bm, stage, n)
		}
		if prev, dup := seen[stage]; dup {
			return fmt.Errorf("stage %d assigned to both %s and %s", stage, prev, bm)
		}
		seen[stage] = bm
	}
	return nil
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	cp := make(Order, len(o))
	for bm, stage := range o {
		cp[bm] = stage
	}
	return cp
}

// Equal reports whether two orders assign identical stages.
func (o Order) Equal(other Order) bool {
	if len(o) != len(other) {
		return false
	}
	for bm, stage := range o {
		if other[bm] != stage {
			return false
		}
	}
	return true
}

// Biomarkers returns the biomarkers sorted by name for deterministic iteration.
func (o Order) Biomarkers() []Biomarker {
	out := make([]Biomarker, 0, len(o))
	for bm := range o {
		out = append(out, bm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ByStage returns the biomarkers sorted by their assigned stage.
func (o Order) ByStage() []Biomarker {
	out := o.Biomarkers()
	sort.Slice(out, func(i, j int) bool { return o[out[i]] < o[out[j]] })
	return out
}

// StageValues returns the stages in biomarker-name order, suitable for rank
// correlation against another order over the same biomarkers.
func (o Order) StageValues() []float64 {
	bms := o.Biomarkers()
	vals := make([]float64, len(bms))
	for i, bm := range bms {
		vals[i] = float64(o[bm])
	}
	return vals
}
