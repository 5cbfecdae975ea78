package ports

import (
	"context"

	"goebm/domain/ebm"
)

// ParameterEstimator re-estimates the per-biomarker theta/phi distribution
// parameters from stage posteriors and raw measurements. The driver is
// written once against this interface; five variants implement it.
//
// Implementations must honor the shared degenerate-partition policy: when a
// biomarker's partition for either state is empty or a singleton, that
// biomarker's theta or phi falls back to the previous store's value for that
// biomarker only. A single degenerate biomarker never corrupts the others
// and never surfaces an error to the driver.
type ParameterEstimator interface {
	// Name returns the configuration value that selects this variant.
	Name() string

	// Estimate produces a fresh parameter store. It must not mutate
	// previous, the dataset, or the posteriors.
	Estimate(ctx context.Context, order ebm.Order, posteriors ebm.StagePosteriors, ds *ebm.Dataset, previous ebm.ThetaPhi) (ebm.ThetaPhi, error)
}
