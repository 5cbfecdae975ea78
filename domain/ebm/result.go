package ebm

import (
	"goebm/domain/core"
)

// TauResult pairs Kendall's tau with its p-value for one reported order
// compared against a supplied ground truth.
type TauResult struct {
	Tau    float64 `json:"tau"`
	PValue float64 `json:"p_value"`
}

// RunResult is the full output artifact of one sampling run, frozen once the
// chain terminates.
type RunResult struct {
	ID        core.RunID     `json:"run_id"`
	Algorithm string         `json:"algorithm"`
	NIter     int            `json:"n_iter"`
	NShuffle  int            `json:"n_shuffle"`
	BurnIn    int            `json:"burn_in"`
	Thinning  int            `json:"thinning"`
	Seed      int64          `json:"seed"`
	CreatedAt core.Timestamp `json:"-"`

	// MostLikelyOrder is the per-biomarker empirical mode over retained
	// samples, resolved greedily into a bijection.
	MostLikelyOrder Order `json:"most_likely_order"`
	// MaxLikelihoodOrder is the order at the single highest recorded
	// log-likelihood across the entire trace.
	MaxLikelihoodOrder Order `json:"order_with_highest_ll"`

	// Tau comparisons are nil when no ground truth was supplied.
	MostLikelyTau    *TauResult `json:"kendalls_tau,omitempty"`
	MaxLikelihoodTau *TauResult `json:"kendalls_tau_highest_ll,omitempty"`
	GroundTruth      Order      `json:"original_order,omitempty"`

	FinalThetaPhi   ThetaPhi        `json:"-"`
	FinalPosteriors StagePosteriors `json:"stage_likelihood_posterior"`
	Trace           *Trace          `json:"-"`

	AcceptanceRate      float64 `json:"acceptance_rate"`
	DegenerateFallbacks int     `json:"degenerate_fallbacks"`
	InstabilityCount    int     `json:"instability_count"`
	FinalLogLikelihood  float64 `json:"final_log_likelihood"`
}
