package mcmc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"goebm/domain/ebm"
	"goebm/internal/errors"
)

// MostLikelyOrder summarizes retained trace entries into a single order: per
// biomarker, the stage with the highest empirical frequency, resolved into a
// bijection by assigning the globally most frequent (biomarker, stage) pairs
// first and removing conflicts greedily.
func MostLikelyOrder(entries []ebm.TraceEntry) (ebm.Order, error) {
	if len(entries) == 0 {
		return nil, errors.InvalidInput("no retained trace entries to summarize")
	}

	counts := make(map[ebm.Biomarker]map[int]int)
	for _, entry := range entries {
		for bm, stage := range entry.Order {
			if counts[bm] == nil {
				counts[bm] = make(map[int]int)
			}
			counts[bm][stage]++
		}
	}

	type pair struct {
		bm    ebm.Biomarker
		stage int
		count int
	}
	var pairs []pair
	for bm, stages := range counts {
		for stage, c := range stages {
			pairs = append(pairs, pair{bm: bm, stage: stage, count: c})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		if pairs[i].bm != pairs[j].bm {
			return pairs[i].bm < pairs[j].bm
		}
		return pairs[i].stage < pairs[j].stage
	})

	n := len(counts)
	order := make(ebm.Order, n)
	usedStage := make(map[int]bool, n)
	for _, p := range pairs {
		if _, done := order[p.bm]; done || usedStage[p.stage] {
			continue
		}
		order[p.bm] = p.stage
		usedStage[p.stage] = true
	}

	// Any biomarker whose frequent stages were all claimed takes the lowest
	// free stage; names are walked in sorted order so the result is
	// deterministic.
	var leftover []ebm.Biomarker
	for bm := range counts {
		if _, done := order[bm]; !done {
			leftover = append(leftover, bm)
		}
	}
	sort.Slice(leftover, func(i, j int) bool { return leftover[i] < leftover[j] })
	for _, bm := range leftover {
		for stage := 1; stage <= n; stage++ {
			if !usedStage[stage] {
				order[bm] = stage
				usedStage[stage] = true
				break
			}
		}
	}

	if err := order.Validate(); err != nil {
		return nil, errors.InvalidOrder(err.Error())
	}
	return order, nil
}

// BestByLikelihood returns the entry with the single highest recorded
// log-likelihood across the entire trace, burn-in included.
func BestByLikelihood(trace *ebm.Trace) ebm.TraceEntry {
	best := trace.Entry(0)
	for i := 1; i < trace.Len(); i++ {
		if e := trace.Entry(i); e.LogLikelihood > best.LogLikelihood {
			best = e
		}
	}
	return best
}

// KendallTau compares a recovered order against a ground truth over the same
// biomarker set and returns tau with a two-sided p-value. The p-value is
// exact for small N (from the null distribution of inversion counts) and a
// normal approximation otherwise.
func KendallTau(recovered, truth ebm.Order) (ebm.TauResult, error) {
	if len(recovered) != len(truth) {
		return ebm.TauResult{}, errors.InvalidInput("orders cover different biomarker sets")
	}
	for bm := range recovered {
		if _, ok := truth[bm]; !ok {
			return ebm.TauResult{}, errors.InvalidInput("ground truth is missing biomarker " + string(bm))
		}
	}

	x := recovered.StageValues()
	y := truth.StageValues()
	tau := stat.Kendall(x, y, nil)
	n := len(x)

	return ebm.TauResult{Tau: tau, PValue: kendallPValue(tau, n)}, nil
}

// exactPValueMaxN bounds the permutation-count table; beyond it the normal
// approximation is accurate enough.
const exactPValueMaxN = 10

func kendallPValue(tau float64, n int) float64 {
	if n < 2 || math.IsNaN(tau) {
		return 1.0
	}

	if n <= exactPValueMaxN {
		return exactKendallPValue(tau, n)
	}

	// Asymptotic null: tau is approximately normal with variance
	// 2(2n+5) / (9n(n-1)).
	sigma := math.Sqrt(2.0 * float64(2*n+5) / (9.0 * float64(n) * float64(n-1)))
	z := math.Abs(tau) / sigma
	p := 2 * distuv.UnitNormal.Survival(z)
	if p > 1 {
		p = 1
	}
	return p
}

// exactKendallPValue computes P(|Tau| >= |tau|) under the uniform null over
// permutations, via the distribution of inversion counts.
func exactKendallPValue(tau float64, n int) float64 {
	pairs := n * (n - 1) / 2

	// tau = 1 - 4*inv / (n(n-1)), so |S| = |C - D| maps to a symmetric band
	// of inversion counts around pairs/2.
	counts := inversionCounts(n, pairs)

	// Observed |S| in half-pair units; guard rounding drift.
	obsS := math.Abs(tau) * float64(pairs)

	var extreme, total float64
	for inv := 0; inv <= pairs; inv++ {
		s := math.Abs(float64(pairs - 2*inv))
		total += counts[inv]
		if s >= obsS-1e-9 {
			extreme += counts[inv]
		}
	}
	return extreme / total
}

// inversionCounts returns the number of permutations of n elements with k
// inversions, for k = 0..maxInv (the Mahonian numbers).
func inversionCounts(n, maxInv int) []float64 {
	counts := make([]float64, maxInv+1)
	counts[0] = 1
	for m := 2; m <= n; m++ {
		next := make([]float64, maxInv+1)
		// Element m can add 0..m-1 inversions.
		var window float64
		for k := 0; k <= maxInv; k++ {
			window += counts[k]
			if k >= m {
				window -= counts[k-m]
			}
			next[k] = window
		}
		counts = next
	}
	return counts
}
