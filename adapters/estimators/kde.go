package estimators

import (
	"context"

	"goebm/domain/ebm"
	"goebm/internal/config"
	"goebm/internal/kde"
)

// KDE is the non-parametric variant: per biomarker and state it fits a
// weighted Gaussian kernel density over all of the biomarker's measurements,
// with weights from the stage posteriors. Refitting a density is the
// expensive step, so when the normalized weights have barely moved since the
// previous fit the old density object is reused as-is.
type KDE struct {
	weightChangeThreshold float64
	diag                  *Diagnostics
}

// NewKDE creates the kernel-density estimator.
func NewKDE(weightChangeThreshold float64, diag *Diagnostics) *KDE {
	return &KDE{weightChangeThreshold: weightChangeThreshold, diag: diag}
}

// Name returns the configuration value selecting this variant.
func (e *KDE) Name() string { return config.AlgorithmKDE }

// Estimate refits (or reuses) one density per biomarker per state.
func (e *KDE) Estimate(_ context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error) {
	updated := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		thetaW, phiW := stateWeights(view, order[bm], posteriors)
		fit := previous[bm]

		if theta, ok := e.refit(view.Values, thetaW, previous[bm].Theta); ok {
			fit.Theta = theta
		} else {
			e.diag.recordFallback(bm, "theta")
		}
		if phi, ok := e.refit(view.Values, phiW, previous[bm].Phi); ok {
			fit.Phi = phi
		} else {
			e.diag.recordFallback(bm, "phi")
		}
		updated[bm] = fit
	}
	return updated, nil
}

func (e *KDE) refit(values, weights []float64, prev ebm.StateParams) (ebm.StateParams, bool) {
	var sumW float64
	carriers := 0
	for _, w := range weights {
		if w > weightFloor {
			carriers++
		}
		sumW += w
	}
	if carriers < 2 || sumW <= weightFloor {
		return ebm.StateParams{}, false
	}

	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / sumW
	}

	if prevDensity, ok := prev.Density.(*kde.Density); ok {
		if prevDensity.MeanAbsWeightDelta(normalized) < e.weightChangeThreshold {
			return prev, true
		}
	}

	density, err := kde.New(values, normalized)
	if err != nil {
		return ebm.StateParams{}, false
	}
	return ebm.StateParams{Density: density}, true
}
