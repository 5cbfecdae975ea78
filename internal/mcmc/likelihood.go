package mcmc

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"goebm/domain/ebm"
	"goebm/internal"
	"goebm/internal/errors"
)

// Hard floor substituted for non-finite log-likelihoods. The accept/reject
// decision must always see a well-defined number.
const logLikelihoodFloor = -1e12

// Evaluator computes, for every participant, the posterior over their latent
// disease stage and the total log-likelihood of the observed data under a
// given order and parameter store. All arithmetic is in log space; the
// marginal over stages uses log-sum-exp.
type Evaluator struct {
	prior         ebm.StagePrior
	logger        *internal.Logger
	instabilities int
}

// NewEvaluator creates an evaluator with the shared stage prior.
func NewEvaluator(prior ebm.StagePrior, logger *internal.Logger) *Evaluator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Evaluator{prior: prior, logger: logger}
}

// Evaluate scores every participant under the order and parameters.
//
// A healthy-labeled participant is pinned to stage 0: posterior mass 1 at
// index 0 and a likelihood that is the product of normal-state densities. A
// diseased participant marginalizes over stages 1..N weighted by the stage
// prior; at stage s the biomarkers ranked <= s emit from theta and the rest
// from phi.
func (e *Evaluator) Evaluate(order ebm.Order, params ebm.ThetaPhi, ds *ebm.Dataset) (ebm.StagePosteriors, float64, error) {
	if err := order.Validate(); err != nil {
		return nil, 0, errors.Wrap(errors.InvalidOrder(err.Error()), "cannot evaluate stage likelihoods")
	}
	n := ds.NumBiomarkers()
	if len(order) != n {
		return nil, 0, errors.InvalidOrder("order covers a different biomarker set than the data")
	}

	weights, err := e.prior.Weights(n)
	if err != nil {
		return nil, 0, errors.Wrap(err, "stage prior")
	}
	logPrior := make([]float64, n)
	for i, w := range weights {
		logPrior[i] = math.Log(w)
	}

	posteriors := make(ebm.StagePosteriors, ds.NumParticipants())
	var totalLL float64

	stageLLs := make([]float64, n)
	for _, pid := range ds.ParticipantIDs() {
		p := ds.Participant(pid)
		post := make([]float64, n+1)

		if !p.Diseased {
			var ll float64
			for i, bm := range p.Biomarkers {
				ll += params[bm].Phi.LogPDF(p.Values[i])
			}
			post[0] = 1.0
			totalLL += e.clampFinite(ll, pid)
			posteriors[pid] = post
			continue
		}

		for s := 1; s <= n; s++ {
			ll := logPrior[s-1]
			for i, bm := range p.Biomarkers {
				if order[bm] <= s {
					ll += params[bm].Theta.LogPDF(p.Values[i])
				} else {
					ll += params[bm].Phi.LogPDF(p.Values[i])
				}
			}
			stageLLs[s-1] = e.clampFinite(ll, pid)
		}

		marginal := floats.LogSumExp(stageLLs)
		if math.IsNaN(marginal) || math.IsInf(marginal, 0) {
			// Every stage underflowed; fall back to an uninformative
			// posterior and the floor so the chain stays well-defined.
			e.instabilities++
			e.logger.Warn("non-finite marginal for participant %d, flooring", pid)
			for s := 1; s <= n; s++ {
				post[s] = 1.0 / float64(n)
			}
			totalLL += logLikelihoodFloor
			posteriors[pid] = post
			continue
		}
		for s := 1; s <= n; s++ {
			post[s] = math.Exp(stageLLs[s-1] - marginal)
		}
		totalLL += marginal
		posteriors[pid] = post
	}

	return posteriors, totalLL, nil
}

func (e *Evaluator) clampFinite(ll float64, pid int) float64 {
	if math.IsNaN(ll) || math.IsInf(ll, 1) {
		e.instabilities++
		e.logger.Warn("non-finite log-likelihood for participant %d, clamping", pid)
		return logLikelihoodFloor
	}
	if ll < logLikelihoodFloor {
		return logLikelihoodFloor
	}
	return ll
}

// InstabilityCount reports how many non-finite intermediates were clamped.
func (e *Evaluator) InstabilityCount() int {
	return e.instabilities
}
