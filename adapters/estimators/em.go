package estimators

import (
	"context"
	"math"

	"goebm/domain/ebm"
	"goebm/internal/config"
)

const (
	emMaxIterations = 50
	emTolerance     = 1e-6
)

// EM refines the soft-assignment fit to local convergence instead of taking
// a single weighted-average pass. Per biomarker it alternates computing
// per-measurement responsibilities (with the stage-derived abnormal mass as
// the mixing prior, healthy participants pinned to the normal state) and
// re-fitting both weighted moments, until the parameters stop moving.
type EM struct {
	diag *Diagnostics
}

// NewEM creates the expectation-maximization estimator.
func NewEM(diag *Diagnostics) *EM {
	return &EM{diag: diag}
}

// Name returns the configuration value selecting this variant.
func (e *EM) Name() string { return config.AlgorithmEM }

// Estimate runs the per-biomarker EM refinement.
func (e *EM) Estimate(_ context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error) {
	updated := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		thetaPrior, _ := stateWeights(view, order[bm], posteriors)

		fit, ok := e.refine(view, thetaPrior, previous[bm])
		if !ok {
			// Degenerate from the start; both states keep previous values.
			e.diag.recordFallback(bm, "theta")
			e.diag.recordFallback(bm, "phi")
			fit = previous[bm]
		}
		updated[bm] = fit
	}
	return updated, nil
}

func (e *EM) refine(view *ebm.BiomarkerView, thetaPrior []float64, prev ebm.BiomarkerFit) (ebm.BiomarkerFit, bool) {
	// Initialize from one soft pass; bail out to the caller's fallback when
	// even that pass is degenerate.
	phiPrior := make([]float64, len(thetaPrior))
	for i, w := range thetaPrior {
		phiPrior[i] = 1.0 - w
	}
	thetaMean, thetaStd, degTheta := weightedMoments(view.Values, thetaPrior)
	phiMean, phiStd, degPhi := weightedMoments(view.Values, phiPrior)
	if degTheta || degPhi {
		return ebm.BiomarkerFit{}, false
	}

	resp := make([]float64, len(view.Values))
	phiResp := make([]float64, len(view.Values))
	for iter := 0; iter < emMaxIterations; iter++ {
		theta := ebm.StateParams{Mean: thetaMean, Std: thetaStd}
		phi := ebm.StateParams{Mean: phiMean, Std: phiStd}

		// E-step: responsibilities under the current two components, mixed
		// by the stage-derived prior mass.
		for i, x := range view.Values {
			if !view.Diseased[i] || thetaPrior[i] <= weightFloor {
				resp[i] = 0
				phiResp[i] = 1
				continue
			}
			wt := thetaPrior[i] * math.Exp(theta.LogPDF(x))
			wp := (1 - thetaPrior[i]) * math.Exp(phi.LogPDF(x))
			total := wt + wp
			if total <= 0 {
				resp[i] = thetaPrior[i]
			} else {
				resp[i] = wt / total
			}
			phiResp[i] = 1 - resp[i]
		}

		// M-step.
		newThetaMean, newThetaStd, degT := weightedMoments(view.Values, resp)
		newPhiMean, newPhiStd, degP := weightedMoments(view.Values, phiResp)
		if degT || degP {
			break
		}

		delta := math.Abs(newThetaMean-thetaMean) + math.Abs(newThetaStd-thetaStd) +
			math.Abs(newPhiMean-phiMean) + math.Abs(newPhiStd-phiStd)
		thetaMean, thetaStd = newThetaMean, newThetaStd
		phiMean, phiStd = newPhiMean, newPhiStd
		if delta < emTolerance {
			break
		}
	}

	return ebm.BiomarkerFit{
		Theta: ebm.StateParams{Mean: thetaMean, Std: thetaStd},
		Phi:   ebm.StateParams{Mean: phiMean, Std: phiStd},
	}, true
}
