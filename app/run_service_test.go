package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"goebm/adapters/data"
	"goebm/domain/ebm"
	"goebm/internal/config"
	"goebm/internal/mcmc"
	"goebm/internal/testkit"
)

func TestRunServiceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	truth := ebm.Order{"AB": 1, "HIP": 2, "PCC": 3, "AVLT": 4, "MMSE": 5}

	gen := testkit.NewCohortGenerator(testkit.CohortConfig{
		GroundTruth: truth,
		Params:      testkit.SeparatedParams(truth),
		DiseasedN:   50,
		HealthyN:    50,
		Seed:        42,
	})
	dataPath := filepath.Join(dir, "cohort.csv")
	require.NoError(t, data.WriteCSV(dataPath, gen.Generate()))
	orderPath := filepath.Join(dir, "order.json")
	encoded, err := json.Marshal(truth)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(orderPath, encoded, 0o644))

	cfg := &config.Config{
		Sampler: config.SamplerConfig{
			Algorithm:             config.AlgorithmConjugatePriors,
			NIter:                 800,
			NShuffle:              2,
			BurnIn:                400,
			Thinning:              2,
			Seed:                  42,
			NChains:               2,
			PriorN:                1.0,
			PriorV:                2.0,
			WeightChangeThreshold: 0.01,
		},
		Prior: config.PriorConfig{Kind: "uniform"},
		Paths: config.PathConfig{
			DataFile:   dataPath,
			OrderFile:  orderPath,
			ResultsDir: filepath.Join(dir, "results"),
		},
	}

	svc := NewRunService(cfg, data.NewReader(dataPath), data.NewOrderFile(orderPath), nil, mcmc.NewSeededRNG(), nil)
	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	if err := result.MostLikelyOrder.Validate(); err != nil {
		t.Errorf("Most likely order is not a bijection: %v", err)
	}
	if !result.MostLikelyOrder.Equal(truth) {
		t.Errorf("Expected recovered order %v, got %v", truth, result.MostLikelyOrder)
	}
	if result.MostLikelyTau == nil {
		t.Fatal("Expected a tau comparison against the supplied ground truth")
	}
	if result.MostLikelyTau.Tau != 1.0 {
		t.Errorf("Expected tau 1.0 against the generating order, got %v", result.MostLikelyTau.Tau)
	}
	if result.MostLikelyTau.PValue >= 0.05 {
		t.Errorf("Expected significance at 0.05 over five biomarkers, got p = %v", result.MostLikelyTau.PValue)
	}
	if result.MaxLikelihoodTau == nil {
		t.Error("Expected a tau comparison for the highest-likelihood order")
	}
	if result.AcceptanceRate < 0 || result.AcceptanceRate > 1 {
		t.Errorf("Acceptance rate %v out of range", result.AcceptanceRate)
	}

	resultsPath := filepath.Join(cfg.Paths.ResultsDir, "results_conjugate_priors.json")
	raw, err := os.ReadFile(resultsPath)
	require.NoError(t, err, "expected results file at %s", resultsPath)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"most_likely_order", "order_with_highest_ll", "kendalls_tau", "theta_phi_params", "acceptance_rate"} {
		require.Contains(t, decoded, key)
	}
}

func TestRunServiceRejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{
		Sampler: config.SamplerConfig{Algorithm: "bogus", NIter: 10, NShuffle: 2, Thinning: 1, NChains: 1, PriorN: 1, PriorV: 2},
		Prior:   config.PriorConfig{Kind: "uniform"},
	}
	svc := NewRunService(cfg, data.NewReader("unused.csv"), nil, nil, mcmc.NewSeededRNG(), nil)
	if _, err := svc.Run(context.Background()); err == nil {
		t.Error("Expected configuration error before any data is read")
	}
}

func TestRunServiceMissingDataFile(t *testing.T) {
	cfg := &config.Config{
		Sampler: config.SamplerConfig{
			Algorithm: config.AlgorithmMLE, NIter: 10, NShuffle: 2, Thinning: 1,
			NChains: 1, PriorN: 1, PriorV: 2, WeightChangeThreshold: 0.01,
		},
		Prior: config.PriorConfig{Kind: "uniform"},
		Paths: config.PathConfig{DataFile: "/nonexistent/cohort.csv"},
	}
	svc := NewRunService(cfg, data.NewReader(cfg.Paths.DataFile), nil, nil, mcmc.NewSeededRNG(), nil)
	if _, err := svc.Run(context.Background()); err == nil {
		t.Error("Expected error for missing data file")
	}
}
