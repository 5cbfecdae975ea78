package app

import (
	"context"
	"sync"

	"goebm/adapters/estimators"
	"goebm/domain/core"
	"goebm/domain/ebm"
	"goebm/internal"
	"goebm/internal/config"
	"goebm/internal/errors"
	"goebm/internal/mcmc"
	"goebm/internal/seeding"
	"goebm/ports"
)

// RunService orchestrates one complete estimation run: load the measurement
// table, seed initial parameters, sample, summarize the posterior order
// distribution, and export/persist results.
type RunService struct {
	cfg         *config.Config
	reader      ports.MeasurementReader
	orderReader ports.OrderReader   // optional ground truth
	repo        ports.RunRepository // optional persistence
	rngPort     ports.RNGPort
	logger      *internal.Logger
}

// NewRunService creates a run service. orderReader and repo may be nil.
func NewRunService(cfg *config.Config, reader ports.MeasurementReader, orderReader ports.OrderReader, repo ports.RunRepository, rngPort ports.RNGPort, logger *internal.Logger) *RunService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RunService{
		cfg:         cfg,
		reader:      reader,
		orderReader: orderReader,
		repo:        repo,
		rngPort:     rngPort,
		logger:      logger,
	}
}

// Run executes the full pipeline and returns the frozen result artifact.
// Fatal errors abort before any output is written.
func (s *RunService) Run(ctx context.Context) (*ebm.RunResult, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	sc := s.cfg.Sampler

	ds, err := s.reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "loading measurements")
	}
	s.logger.Info("loaded %d participants x %d biomarkers", ds.NumParticipants(), ds.NumBiomarkers())

	var groundTruth ebm.Order
	if s.orderReader != nil {
		groundTruth, err = s.orderReader.ReadOrder()
		if err != nil {
			return nil, errors.Wrap(err, "loading ground-truth order")
		}
	}

	prior, err := s.stagePrior(ds.NumBiomarkers())
	if err != nil {
		return nil, err
	}

	seedRNG := s.rngPort.SeededStream("seeding", sc.Seed)
	seed, err := seeding.InitialThetaPhi(seedRNG, ds, sc.Algorithm == config.AlgorithmKDE)
	if err != nil {
		return nil, errors.Wrap(err, "seeding initial parameters")
	}

	// Fail fast on an unknown variant name before spinning up chains.
	if _, err := estimators.New(sc.Algorithm, sc, nil); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var diags []*estimators.Diagnostics
	newEstimator := func() ports.ParameterEstimator {
		mu.Lock()
		defer mu.Unlock()
		diag := estimators.NewDiagnostics(s.logger)
		diags = append(diags, diag)
		// The variant name was validated above; New cannot fail here.
		est, _ := estimators.New(sc.Algorithm, sc, diag)
		return est
	}

	runner := mcmc.NewMultiChain(sc, prior, s.rngPort, newEstimator, s.logger)
	results, best, err := runner.Run(ctx, ds, seed)
	if err != nil {
		return nil, err
	}
	chain := results[best]
	if sc.NChains > 1 {
		s.logger.Info("selected chain %d of %d (log-likelihood %.4f)", best, sc.NChains, chain.FinalLogLikelihood)
	}

	result, err := s.summarize(chain, groundTruth, diags)
	if err != nil {
		return nil, err
	}

	if s.cfg.Paths.ResultsDir != "" {
		if err := WriteResults(s.cfg.Paths.ResultsDir, result); err != nil {
			return nil, errors.Wrap(err, "writing results")
		}
	}
	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, result); err != nil {
			return nil, errors.Wrap(err, "persisting run")
		}
		s.logger.Info("run %s persisted", result.ID)
	}
	return result, nil
}

func (s *RunService) stagePrior(n int) (ebm.StagePrior, error) {
	if s.cfg.Prior.Kind == "dirichlet" {
		alphas := s.cfg.Prior.Alphas
		if len(alphas) == 0 {
			alphas = make([]float64, n)
			for i := range alphas {
				alphas[i] = 1
			}
		}
		prior, err := ebm.NewDirichletPrior(alphas)
		if err != nil {
			return ebm.StagePrior{}, errors.Wrap(errors.ConfigInvalid(err.Error()), "stage prior")
		}
		return prior, nil
	}
	return ebm.NewUniformPrior(), nil
}

func (s *RunService) summarize(chain *mcmc.ChainResult, groundTruth ebm.Order, diags []*estimators.Diagnostics) (*ebm.RunResult, error) {
	sc := s.cfg.Sampler
	retained := chain.Trace.Retained(sc.BurnIn, sc.Thinning)
	mostLikely, err := mcmc.MostLikelyOrder(retained)
	if err != nil {
		return nil, errors.Wrap(err, "summarizing posterior orders")
	}
	bestEntry := mcmc.BestByLikelihood(chain.Trace)

	fallbacks := 0
	for _, d := range diags {
		fallbacks += d.Fallbacks()
	}

	result := &ebm.RunResult{
		ID:                  core.NewRunID(),
		Algorithm:           sc.Algorithm,
		NIter:               sc.NIter,
		NShuffle:            sc.NShuffle,
		BurnIn:              sc.BurnIn,
		Thinning:            sc.Thinning,
		Seed:                sc.Seed,
		CreatedAt:           core.Now(),
		MostLikelyOrder:     mostLikely,
		MaxLikelihoodOrder:  bestEntry.Order,
		GroundTruth:         groundTruth,
		FinalThetaPhi:       chain.FinalThetaPhi,
		FinalPosteriors:     chain.FinalPosteriors,
		Trace:               chain.Trace,
		AcceptanceRate:      chain.AcceptanceRate(),
		DegenerateFallbacks: fallbacks,
		InstabilityCount:    chain.InstabilityCount,
		FinalLogLikelihood:  chain.FinalLogLikelihood,
	}

	if groundTruth != nil {
		tau, err := mcmc.KendallTau(mostLikely, groundTruth)
		if err != nil {
			return nil, errors.Wrap(err, "comparing most-likely order to ground truth")
		}
		result.MostLikelyTau = &tau

		tau2, err := mcmc.KendallTau(bestEntry.Order, groundTruth)
		if err != nil {
			return nil, errors.Wrap(err, "comparing highest-ll order to ground truth")
		}
		result.MaxLikelihoodTau = &tau2
	}
	return result, nil
}
