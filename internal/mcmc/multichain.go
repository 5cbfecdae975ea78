package mcmc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"goebm/domain/ebm"
	"goebm/internal"
	"goebm/internal/config"
	"goebm/internal/errors"
	"goebm/ports"
)

// MultiChain runs several independent chains over the same dataset. Each
// chain owns its own current state, RNG stream and estimator instance; the
// chains share nothing mutable and communicate only by each contributing its
// final result.
type MultiChain struct {
	cfg          config.SamplerConfig
	prior        ebm.StagePrior
	rngPort      ports.RNGPort
	newEstimator func() ports.ParameterEstimator
	logger       *internal.Logger
}

// NewMultiChain creates the multi-chain runner. newEstimator is called once
// per chain so estimator-internal diagnostics are never shared across
// goroutines.
func NewMultiChain(cfg config.SamplerConfig, prior ebm.StagePrior, rngPort ports.RNGPort, newEstimator func() ports.ParameterEstimator, logger *internal.Logger) *MultiChain {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MultiChain{
		cfg:          cfg,
		prior:        prior,
		rngPort:      rngPort,
		newEstimator: newEstimator,
		logger:       logger,
	}
}

// Run executes cfg.NChains chains concurrently and returns every chain's
// result plus the index of the chain with the highest final log-likelihood.
func (m *MultiChain) Run(ctx context.Context, ds *ebm.Dataset, seed ebm.ThetaPhi) ([]*ChainResult, int, error) {
	nChains := m.cfg.NChains
	if nChains < 1 {
		return nil, 0, errors.ConfigInvalid("n_chains must be >= 1")
	}

	results := make([]*ChainResult, nChains)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < nChains; i++ {
		i := i
		g.Go(func() error {
			chainLogger := m.logger.WithPrefix(fmt.Sprintf("chain-%d: ", i))
			sampler, err := NewSampler(m.cfg, m.newEstimator(), m.prior, m.rngPort.ChainStream(i, m.cfg.Seed), chainLogger)
			if err != nil {
				return err
			}
			// Chains share the immutable dataset but each clones the seed
			// parameters, preserving exclusive state ownership.
			result, err := sampler.Run(gctx, ds, seed.Clone())
			if err != nil {
				return errors.Wrapf(err, "chain %d", i)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	best := 0
	for i, r := range results {
		if r.FinalLogLikelihood > results[best].FinalLogLikelihood {
			best = i
		}
	}
	return results, best, nil
}
