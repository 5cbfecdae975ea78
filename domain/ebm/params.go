package ebm

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// The observation SD is never allowed to collapse to zero: a degenerate
// density must act like a sharp indicator, not raise or return NaN.
const minStd = 1e-8

// LogDensity is a fitted non-parametric density that can score observations
// in log space. The kde estimator variant supplies implementations.
type LogDensity interface {
	LogPDF(x float64) float64
}

// StateParams describes one state's measurement distribution for a biomarker:
// (Mean, Std) for the parametric variants, or a fitted Density for the
// non-parametric variant. When Density is non-nil it takes precedence.
type StateParams struct {
	Mean    float64
	Std     float64
	Density LogDensity
}

// LogPDF evaluates the log density of an observed value under this state.
func (p StateParams) LogPDF(x float64) float64 {
	if p.Density != nil {
		return p.Density.LogPDF(x)
	}
	sigma := p.Std
	if sigma < minStd {
		sigma = minStd
	}
	return distuv.Normal{Mu: p.Mean, Sigma: sigma}.LogProb(x)
}

// IsFinite reports whether the parametric fields are usable numbers.
func (p StateParams) IsFinite() bool {
	if p.Density != nil {
		return true
	}
	return !math.IsNaN(p.Mean) && !math.IsInf(p.Mean, 0) &&
		!math.IsNaN(p.Std) && !math.IsInf(p.Std, 0)
}

// BiomarkerFit holds the abnormal-state (theta) and normal-state (phi)
// distribution parameters for one biomarker.
type BiomarkerFit struct {
	Theta StateParams
	Phi   StateParams
}

// ThetaPhi is the distribution parameter store: per biomarker, the current
// theta/phi fits. It is owned by the MCMC driver; estimators receive it as a
// snapshot and return a fresh store.
type ThetaPhi map[Biomarker]BiomarkerFit

// Clone returns a copy of the store. Density objects are shared: a fitted
// density is immutable once built, estimators replace rather than mutate it.
func (tp ThetaPhi) Clone() ThetaPhi {
	cp := make(ThetaPhi, len(tp))
	for bm, fit := range tp {
		cp[bm] = fit
	}
	return cp
}
