package estimators

import (
	"context"
	"math"

	"goebm/domain/ebm"
	"goebm/internal/config"
)

// ConjugatePriors updates each biomarker/state fit with a Normal-Inverse-
// Gamma posterior. The prior for each update is the previous accepted fit
// itself: mu0 and sigma0 come from previous[bm], priorN is the pseudo-count
// backing mu0 and priorV the degrees of freedom backing sigma0^2. With
// weighted sufficient statistics n = sum(w), xbar and ss:
//
//	kappa_n = priorN + n       mu_n    = (priorN*mu0 + n*xbar) / kappa_n
//	alpha_n = priorV/2 + n/2   beta_n  = beta0 + ss/2
//	                                     + priorN*n*(xbar-mu0)^2 / (2*kappa_n)
//	beta0   = (priorV/2) * sigma0^2
//
// The returned point estimates are mu_n and sqrt(beta_n/alpha_n).
type ConjugatePriors struct {
	priorN float64
	priorV float64
	diag   *Diagnostics
}

// NewConjugatePriors creates the Bayesian-update estimator. priorN and
// priorV tune how strongly the previous parameters resist the new weighted
// evidence.
func NewConjugatePriors(priorN, priorV float64, diag *Diagnostics) *ConjugatePriors {
	return &ConjugatePriors{priorN: priorN, priorV: priorV, diag: diag}
}

// Name returns the configuration value selecting this variant.
func (e *ConjugatePriors) Name() string { return config.AlgorithmConjugatePriors }

// Estimate performs the weighted conjugate update per biomarker and state.
func (e *ConjugatePriors) Estimate(_ context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error) {
	updated := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		thetaW, phiW := stateWeights(view, order[bm], posteriors)
		fit := previous[bm]

		if theta, ok := e.update(view.Values, thetaW, previous[bm].Theta); ok {
			fit.Theta = theta
		} else {
			e.diag.recordFallback(bm, "theta")
		}
		if phi, ok := e.update(view.Values, phiW, previous[bm].Phi); ok {
			fit.Phi = phi
		} else {
			e.diag.recordFallback(bm, "phi")
		}
		updated[bm] = fit
	}
	return updated, nil
}

func (e *ConjugatePriors) update(values, weights []float64, prior ebm.StateParams) (ebm.StateParams, bool) {
	var n, sumWX float64
	carriers := 0
	for i, w := range weights {
		if w > weightFloor {
			carriers++
		}
		n += w
		sumWX += w * values[i]
	}
	// An empty or singleton partition cannot move the posterior in a
	// defensible direction; keep the previous fit exactly.
	if carriers < 2 || n <= weightFloor {
		return ebm.StateParams{}, false
	}
	xbar := sumWX / n

	var ss float64
	for i, w := range weights {
		d := values[i] - xbar
		ss += w * d * d
	}

	mu0 := prior.Mean
	sigma0 := prior.Std
	kappaN := e.priorN + n
	muN := (e.priorN*mu0 + n*xbar) / kappaN
	alpha0 := e.priorV / 2
	beta0 := alpha0 * sigma0 * sigma0
	alphaN := alpha0 + n/2
	betaN := beta0 + ss/2 + e.priorN*n*(xbar-mu0)*(xbar-mu0)/(2*kappaN)

	stdN := math.Sqrt(betaN / alphaN)
	out := ebm.StateParams{Mean: muN, Std: stdN}
	if !out.IsFinite() {
		return ebm.StateParams{}, false
	}
	return out, true
}
