// Package seeding produces the initial theta/phi estimates consumed by the
// first MCMC iteration. Seeding runs once, before ITERATING; mid-chain
// updates always come from the configured estimator instead.
package seeding

import (
	"math/rand"

	"goebm/domain/ebm"
	"goebm/internal/errors"
	"goebm/internal/kde"
	"goebm/internal/kmeans"
)

// InitialThetaPhi runs the seeded two-cluster pass per biomarker. When
// nonParametric is set (the kde algorithm), each cluster also gets a fitted
// density; the parametric moments are kept alongside as a fallback anchor.
func InitialThetaPhi(rng *rand.Rand, ds *ebm.Dataset, nonParametric bool) (ebm.ThetaPhi, error) {
	seed := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		healthy := make([]bool, len(view.Diseased))
		for i, d := range view.Diseased {
			healthy[i] = !d
		}

		abnormal, normal, err := kmeans.TwoClusters(rng, view.Values, healthy)
		if err != nil {
			return nil, errors.Wrapf(err, "seeding biomarker %s", bm)
		}

		fit := ebm.BiomarkerFit{
			Theta: clusterParams(abnormal, view.Values),
			Phi:   clusterParams(normal, view.Values),
		}

		if nonParametric {
			if theta, err := clusterDensity(abnormal, view.Values); err == nil {
				fit.Theta.Density = theta
			}
			if phi, err := clusterDensity(normal, view.Values); err == nil {
				fit.Phi.Density = phi
			}
		}
		seed[bm] = fit
	}
	return seed, nil
}

// clusterParams fits sample moments, falling back to the full measurement
// sample when the cluster is too small for a defined variance. The seed must
// never contain NaN: every later degenerate update falls back to it.
func clusterParams(cluster, all []float64) ebm.StateParams {
	if mean, std, err := kmeans.FitMoments(cluster); err == nil {
		return ebm.StateParams{Mean: mean, Std: std}
	}
	mean, std, err := kmeans.FitMoments(all)
	if err != nil {
		// Single-measurement dataset; degenerate but well-defined.
		return ebm.StateParams{Mean: all[0], Std: 1}
	}
	return ebm.StateParams{Mean: mean, Std: std}
}

func clusterDensity(cluster, all []float64) (*kde.Density, error) {
	if len(cluster) >= 2 {
		return kde.New(cluster, nil)
	}
	return kde.New(all, nil)
}
