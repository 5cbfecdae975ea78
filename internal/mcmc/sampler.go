package mcmc

import (
	"context"
	"math"
	"math/rand"

	"goebm/domain/ebm"
	"goebm/internal"
	"goebm/internal/config"
	"goebm/internal/errors"
	"goebm/ports"
)

// ChainResult is everything one chain hands back after termination.
type ChainResult struct {
	Trace              *ebm.Trace
	FinalOrder         ebm.Order
	FinalThetaPhi      ebm.ThetaPhi
	FinalPosteriors    ebm.StagePosteriors
	FinalLogLikelihood float64
	AcceptanceCount    int
	InstabilityCount   int
}

// AcceptanceRate returns accepted proposals over total iterations.
func (r *ChainResult) AcceptanceRate() float64 {
	if r.Trace == nil || r.Trace.Len() == 0 {
		return 0
	}
	return float64(r.AcceptanceCount) / float64(r.Trace.Len())
}

// Sampler drives Metropolis-Hastings over biomarker orderings. It owns the
// chain's current state (order, parameters, log-likelihood) exclusively:
// the evaluator and estimator only ever see snapshots, and the state triple
// is replaced wholesale on acceptance or left untouched on rejection.
type Sampler struct {
	cfg       config.SamplerConfig
	estimator ports.ParameterEstimator
	evaluator *Evaluator
	proposer  *Proposer
	rng       *rand.Rand
	logger    *internal.Logger
}

// NewSampler wires a sampler from its collaborators. The rng stream feeds
// both the proposal shuffle and the Metropolis accept draw, so one seed
// fixes the whole trajectory.
func NewSampler(cfg config.SamplerConfig, estimator ports.ParameterEstimator, prior ebm.StagePrior, rng *rand.Rand, logger *internal.Logger) (*Sampler, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	proposer, err := NewProposer(cfg.NShuffle, rng)
	if err != nil {
		return nil, err
	}
	return &Sampler{
		cfg:       cfg,
		estimator: estimator,
		evaluator: NewEvaluator(prior, logger),
		proposer:  proposer,
		rng:       rng,
		logger:    logger,
	}, nil
}

// Run executes the full chain: INITIALIZING, then NIter iterations of
// propose / re-estimate / score / accept-or-reject / record, then TERMINATED.
//
// Per iteration:
//  1. a candidate order is proposed from the current order;
//  2. stage posteriors for the candidate are computed under the CURRENT
//     parameters (they carry forward from the previous iteration, never
//     re-seeded mid-chain);
//  3. the estimator turns those posteriors into candidate parameters;
//  4. the candidate is re-scored under its OWN candidate parameters, so the
//     score and the parameters that would be adopted stay consistent;
//  5. Metropolis: accept when delta >= 0, else with probability exp(delta);
//     acceptance swaps order, parameters and log-likelihood together;
//  6. the resulting current state is recorded in the trace (cloned inside
//     Trace.Append, so history can never be mutated retroactively).
func (s *Sampler) Run(ctx context.Context, ds *ebm.Dataset, seed ebm.ThetaPhi) (*ChainResult, error) {
	if ds.NumBiomarkers() < 2 {
		return nil, errors.InvalidInput("need at least 2 biomarkers to order")
	}
	for _, bm := range ds.Biomarkers() {
		if _, ok := seed[bm]; !ok {
			return nil, errors.InvalidInput("seed parameters missing biomarker " + string(bm))
		}
	}

	currentOrder := ebm.NewRandomOrder(s.rng, ds.Biomarkers())
	if err := currentOrder.Validate(); err != nil {
		return nil, errors.InvalidOrder(err.Error())
	}
	currentParams := seed.Clone()
	currentLL := math.Inf(-1)

	trace := ebm.NewTrace(s.cfg.NIter)
	accepted := 0
	logEvery := s.cfg.NIter / 10
	if logEvery < 10 {
		logEvery = 10
	}

	for iter := 0; iter < s.cfg.NIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "sampling interrupted")
		}

		candidate := s.proposer.Propose(currentOrder)

		posteriors, _, err := s.evaluator.Evaluate(candidate, currentParams, ds)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: scoring candidate under current parameters", iter)
		}

		candParams, err := s.estimator.Estimate(ctx, candidate, posteriors, ds, currentParams)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: estimating parameters", iter)
		}

		_, candLL, err := s.evaluator.Evaluate(candidate, candParams, ds)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: scoring candidate under candidate parameters", iter)
		}

		delta := candLL - currentLL
		accept := delta >= 0
		if !accept {
			accept = s.rng.Float64() < math.Exp(delta)
		}
		if accept {
			currentOrder = candidate
			currentParams = candParams
			currentLL = candLL
			accepted++
		}

		trace.Append(currentOrder, currentLL)

		if (iter+1)%logEvery == 0 {
			s.logger.Info("iteration %d/%d, acceptance %.2f%%, log-likelihood %.4f",
				iter+1, s.cfg.NIter, 100*float64(accepted)/float64(iter+1), currentLL)
		}
	}

	finalPosteriors, finalLL, err := s.evaluator.Evaluate(currentOrder, currentParams, ds)
	if err != nil {
		return nil, errors.Wrap(err, "final evaluation")
	}

	return &ChainResult{
		Trace:              trace,
		FinalOrder:         currentOrder.Clone(),
		FinalThetaPhi:      currentParams,
		FinalPosteriors:    finalPosteriors,
		FinalLogLikelihood: finalLL,
		AcceptanceCount:    accepted,
		InstabilityCount:   s.evaluator.InstabilityCount(),
	}, nil
}
