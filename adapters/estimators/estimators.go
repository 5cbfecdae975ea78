// Package estimators provides the five interchangeable parameter-update
// strategies behind ports.ParameterEstimator. All variants share one
// partition/weighting scheme: a biomarker ranked r in the proposed order is
// abnormal for a participant at stage s exactly when r <= s, so each
// participant's posterior stage mass splits every measurement between the
// abnormal (theta) and normal (phi) fits.
package estimators

import (
	"math"

	"goebm/domain/ebm"
	"goebm/internal"
	"goebm/internal/config"
	"goebm/internal/errors"
	"goebm/ports"
)

// Weights below this carry no effective measurement.
const weightFloor = 1e-12

// Diagnostics counts locally-recovered degenerate-cluster fallbacks. Not
// required for correctness; surfaced in run summaries for inspection.
type Diagnostics struct {
	logger    *internal.Logger
	fallbacks int
}

// NewDiagnostics creates a diagnostics sink.
func NewDiagnostics(logger *internal.Logger) *Diagnostics {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Diagnostics{logger: logger}
}

func (d *Diagnostics) recordFallback(bm ebm.Biomarker, state string) {
	if d == nil {
		return
	}
	d.fallbacks++
	d.logger.Debug("degenerate %s partition for biomarker %s, keeping previous parameters", state, bm)
}

// Fallbacks returns how many per-biomarker fallbacks occurred.
func (d *Diagnostics) Fallbacks() int {
	if d == nil {
		return 0
	}
	return d.fallbacks
}

// New selects an estimator variant by its configuration name.
func New(name string, cfg config.SamplerConfig, diag *Diagnostics) (ports.ParameterEstimator, error) {
	switch name {
	case config.AlgorithmConjugatePriors:
		return NewConjugatePriors(cfg.PriorN, cfg.PriorV, diag), nil
	case config.AlgorithmHardKMeans:
		return NewHardKMeans(diag), nil
	case config.AlgorithmMLE:
		return NewMLE(diag), nil
	case config.AlgorithmEM:
		return NewEM(diag), nil
	case config.AlgorithmKDE:
		return NewKDE(cfg.WeightChangeThreshold, diag), nil
	default:
		return nil, errors.ConfigInvalid("unknown algorithm '" + name + "'")
	}
}

// stateWeights computes, for one biomarker, each measurement's posterior
// probability of being in the abnormal state. Healthy participants carry
// zero abnormal mass by construction.
func stateWeights(view *ebm.BiomarkerView, rank int, posteriors ebm.StagePosteriors) (thetaW, phiW []float64) {
	thetaW = make([]float64, len(view.Values))
	phiW = make([]float64, len(view.Values))
	for i, pid := range view.Participants {
		if !view.Diseased[i] {
			phiW[i] = 1.0
			continue
		}
		post := posteriors[pid]
		var abnormal float64
		for s := rank; s < len(post); s++ {
			abnormal += post[s]
		}
		thetaW[i] = abnormal
		phiW[i] = 1.0 - abnormal
		if phiW[i] < 0 {
			phiW[i] = 0
		}
	}
	return thetaW, phiW
}

// weightedMoments fits a weighted mean and standard deviation. It reports
// degenerate=true when fewer than two measurements carry weight, in which
// case the caller must fall back to the previous parameters.
func weightedMoments(values, weights []float64) (mean, std float64, degenerate bool) {
	var sumW, sumWX float64
	carriers := 0
	for i, w := range weights {
		if w > weightFloor {
			carriers++
		}
		sumW += w
		sumWX += w * values[i]
	}
	if carriers < 2 || sumW <= weightFloor {
		return 0, 0, true
	}
	mean = sumWX / sumW

	var sumWSq float64
	for i, w := range weights {
		d := values[i] - mean
		sumWSq += w * d * d
	}
	std = math.Sqrt(sumWSq / sumW)
	if math.IsNaN(mean) || math.IsNaN(std) {
		return 0, 0, true
	}
	return mean, std, false
}
