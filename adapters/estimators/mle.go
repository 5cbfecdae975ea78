package estimators

import (
	"context"

	"goebm/domain/ebm"
	"goebm/internal/config"
)

// MLE is the soft-assignment maximum-likelihood variant: each biomarker's
// two fits are weighted moments under the continuous posterior stage
// probabilities, computed in a single pass.
type MLE struct {
	diag *Diagnostics
}

// NewMLE creates the soft-assignment estimator.
func NewMLE(diag *Diagnostics) *MLE {
	return &MLE{diag: diag}
}

// Name returns the configuration value selecting this variant.
func (e *MLE) Name() string { return config.AlgorithmMLE }

// Estimate fits weighted moments per biomarker and state, falling back per
// biomarker to the previous parameters when a partition is degenerate.
func (e *MLE) Estimate(_ context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error) {
	updated := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		thetaW, phiW := stateWeights(view, order[bm], posteriors)
		fit := previous[bm]

		if mean, std, degenerate := weightedMoments(view.Values, thetaW); degenerate {
			e.diag.recordFallback(bm, "theta")
		} else {
			fit.Theta = ebm.StateParams{Mean: mean, Std: std}
		}
		if mean, std, degenerate := weightedMoments(view.Values, phiW); degenerate {
			e.diag.recordFallback(bm, "phi")
		} else {
			fit.Phi = ebm.StateParams{Mean: mean, Std: std}
		}
		updated[bm] = fit
	}
	return updated, nil
}
