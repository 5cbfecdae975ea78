package estimators

import (
	"context"

	"github.com/montanaflynn/stats"

	"goebm/domain/ebm"
	"goebm/internal/config"
)

// HardKMeans assigns every participant their single most probable stage and
// partitions each biomarker's measurements by whether that hard stage puts
// the biomarker past its rank; each partition gets plain sample moments.
type HardKMeans struct {
	diag *Diagnostics
}

// NewHardKMeans creates the hard-assignment estimator.
func NewHardKMeans(diag *Diagnostics) *HardKMeans {
	return &HardKMeans{diag: diag}
}

// Name returns the configuration value selecting this variant.
func (e *HardKMeans) Name() string { return config.AlgorithmHardKMeans }

// Estimate partitions by argmax stage and fits sample moments per partition.
func (e *HardKMeans) Estimate(_ context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error) {
	hardStage := make(map[int]int, ds.NumParticipants())
	for _, pid := range ds.ParticipantIDs() {
		hardStage[pid] = argmax(posteriors[pid])
	}

	updated := make(ebm.ThetaPhi, ds.NumBiomarkers())
	for _, bm := range ds.Biomarkers() {
		view := ds.ByBiomarker(bm)
		rank := order[bm]

		var abnormal, normal []float64
		for i, pid := range view.Participants {
			if view.Diseased[i] && hardStage[pid] >= rank {
				abnormal = append(abnormal, view.Values[i])
			} else {
				normal = append(normal, view.Values[i])
			}
		}

		fit := previous[bm]
		if mean, std, ok := sampleMoments(abnormal); ok {
			fit.Theta = ebm.StateParams{Mean: mean, Std: std}
		} else {
			e.diag.recordFallback(bm, "theta")
		}
		if mean, std, ok := sampleMoments(normal); ok {
			fit.Phi = ebm.StateParams{Mean: mean, Std: std}
		} else {
			e.diag.recordFallback(bm, "phi")
		}
		updated[bm] = fit
	}
	return updated, nil
}

func argmax(probs []float64) int {
	best := 0
	for s, p := range probs {
		if p > probs[best] {
			best = s
		}
	}
	return best
}

// sampleMoments returns plain sample mean/std, refusing partitions smaller
// than two where the variance is undefined.
func sampleMoments(values []float64) (mean, std float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0, 0, false
	}
	std, err = stats.StandardDeviationSample(stats.Float64Data(values))
	if err != nil {
		return 0, 0, false
	}
	return mean, std, true
}
