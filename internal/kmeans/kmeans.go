// Package kmeans provides the seeded two-cluster pass that produces initial
// theta/phi estimates for each biomarker before the first MCMC iteration.
package kmeans

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"
)

const maxIterations = 100

// TwoClusters splits one biomarker's measurements into an abnormal-leaning
// and a normal-leaning cluster. The healthy flags anchor the assignment:
// whichever cluster captures more healthy-labeled measurements is reported as
// the normal (phi) cluster. Centroids are seeded from the RNG stream so a
// fixed seed reproduces the same split.
func TwoClusters(rng *rand.Rand, values []float64, healthy []bool) (abnormal, normal []float64, err error) {
	if len(values) != len(healthy) {
		return nil, nil, fmt.Errorf("kmeans: %d values but %d labels", len(values), len(healthy))
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("kmeans: need at least 2 measurements, got %d", len(values))
	}

	// Seed centroids from two distinct random measurements.
	i := rng.Intn(len(values))
	j := rng.Intn(len(values))
	for attempts := 0; values[j] == values[i] && attempts < 10; attempts++ {
		j = rng.Intn(len(values))
	}
	c0, c1 := values[i], values[j]
	if c0 == c1 {
		// All measurements identical; an arbitrary split is as good as any.
		c1 = c0 + 1
	}

	assign := make([]int, len(values))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for k, v := range values {
			a := 0
			if math.Abs(v-c1) < math.Abs(v-c0) {
				a = 1
			}
			if assign[k] != a {
				assign[k] = a
				changed = true
			}
		}

		var sum0, sum1 float64
		var n0, n1 int
		for k, v := range values {
			if assign[k] == 0 {
				sum0 += v
				n0++
			} else {
				sum1 += v
				n1++
			}
		}
		// An emptied cluster gets re-seeded rather than dropped.
		if n0 == 0 || n1 == 0 {
			c0 = values[rng.Intn(len(values))]
			c1 = values[rng.Intn(len(values))]
			continue
		}
		c0 = sum0 / float64(n0)
		c1 = sum1 / float64(n1)
		if !changed {
			break
		}
	}

	// The cluster holding more healthy-labeled measurements is phi.
	healthyIn0, healthyIn1 := 0, 0
	for k := range values {
		if healthy[k] {
			if assign[k] == 0 {
				healthyIn0++
			} else {
				healthyIn1++
			}
		}
	}
	normalCluster := 0
	if healthyIn1 > healthyIn0 {
		normalCluster = 1
	} else if healthyIn0 == healthyIn1 {
		// No healthy anchor (or a tie): the lower-mean cluster plays normal.
		if c1 < c0 {
			normalCluster = 1
		}
	}

	for k, v := range values {
		if assign[k] == normalCluster {
			normal = append(normal, v)
		} else {
			abnormal = append(abnormal, v)
		}
	}
	return abnormal, normal, nil
}

// FitMoments returns the sample mean and standard deviation of a cluster, or
// an error when the cluster is too small for the variance to be defined.
func FitMoments(values []float64) (mean, std float64, err error) {
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("kmeans: cluster of size %d has undefined variance", len(values))
	}
	mean, err = stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0, 0, err
	}
	std, err = stats.StandardDeviationSample(stats.Float64Data(values))
	if err != nil {
		return 0, 0, err
	}
	return mean, std, nil
}
