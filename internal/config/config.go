package config

import (
	"os"
	"strconv"
	"strings"

	"goebm/internal/errors"
)

// Algorithm names for the parameter-estimator variants.
const (
	AlgorithmConjugatePriors = "conjugate_priors"
	AlgorithmHardKMeans      = "hard_kmeans"
	AlgorithmMLE             = "mle"
	AlgorithmEM              = "em"
	AlgorithmKDE             = "kde"
)

// AllowedAlgorithms lists the valid estimator variant names.
var AllowedAlgorithms = []string{
	AlgorithmConjugatePriors,
	AlgorithmHardKMeans,
	AlgorithmMLE,
	AlgorithmEM,
	AlgorithmKDE,
}

// Config represents the complete application configuration
type Config struct {
	Sampler  SamplerConfig
	Prior    PriorConfig
	Database DatabaseConfig
	Paths    PathConfig
}

// SamplerConfig holds the MCMC knobs consumed verbatim by the driver
type SamplerConfig struct {
	Algorithm string
	NIter     int
	NShuffle  int
	BurnIn    int
	Thinning  int
	Seed      int64
	NChains   int

	// Conjugate-prior strengths: pseudo-observations backing the prior mean
	// and degrees of freedom backing the prior variance.
	PriorN float64
	PriorV float64

	// KDE-only: rebuild the density only when the mean absolute weight
	// change exceeds this threshold.
	WeightChangeThreshold float64
}

// PriorConfig selects the stage prior shared across participants
type PriorConfig struct {
	Kind   string // "uniform" or "dirichlet"
	Alphas []float64
}

// DatabaseConfig holds optional run-persistence settings
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	DataFile   string
	OrderFile  string // optional ground-truth order (JSON)
	ResultsDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Sampler: SamplerConfig{
			Algorithm:             getEnv("EBM_ALGORITHM", AlgorithmConjugatePriors),
			NIter:                 getEnvInt("EBM_N_ITER", 2000),
			NShuffle:              getEnvInt("EBM_N_SHUFFLE", 2),
			BurnIn:                getEnvInt("EBM_BURN_IN", 1000),
			Thinning:              getEnvInt("EBM_THINNING", 50),
			Seed:                  getEnvInt64("EBM_SEED", 42),
			NChains:               getEnvInt("EBM_N_CHAINS", 1),
			PriorN:                getEnvFloat("EBM_PRIOR_N", 1.0),
			PriorV:                getEnvFloat("EBM_PRIOR_V", 2.0),
			WeightChangeThreshold: getEnvFloat("EBM_KDE_WEIGHT_THRESHOLD", 0.01),
		},
		Prior: PriorConfig{
			Kind:   getEnv("EBM_STAGE_PRIOR", "uniform"),
			Alphas: getEnvFloats("EBM_STAGE_PRIOR_ALPHAS"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Paths: PathConfig{
			DataFile:   os.Getenv("EBM_DATA_FILE"),
			OrderFile:  os.Getenv("EBM_ORDER_FILE"),
			ResultsDir: getEnv("EBM_RESULTS_DIR", "results"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the fatal configuration preconditions before any
// sampling work begins.
func (c *Config) Validate() error {
	s := c.Sampler
	if !isAllowedAlgorithm(s.Algorithm) {
		return errors.ConfigInvalid("unknown algorithm '" + s.Algorithm + "', must be one of " + strings.Join(AllowedAlgorithms, ", "))
	}
	if s.NIter <= 0 {
		return errors.ConfigInvalid("n_iter must be positive, got " + strconv.Itoa(s.NIter))
	}
	if s.NShuffle < 2 {
		return errors.ConfigInvalid("n_shuffle must be >= 2 to produce a derangement, got " + strconv.Itoa(s.NShuffle))
	}
	if s.BurnIn < 0 || s.BurnIn >= s.NIter {
		return errors.ConfigInvalid("burn_in must be in [0, n_iter), got " + strconv.Itoa(s.BurnIn))
	}
	if s.Thinning <= 0 {
		return errors.ConfigInvalid("thinning must be >= 1, got " + strconv.Itoa(s.Thinning))
	}
	if s.NChains < 1 {
		return errors.ConfigInvalid("n_chains must be >= 1, got " + strconv.Itoa(s.NChains))
	}
	if s.PriorN <= 0 || s.PriorV <= 0 {
		return errors.ConfigInvalid("prior_n and prior_v must be positive")
	}
	if c.Prior.Kind != "uniform" && c.Prior.Kind != "dirichlet" {
		return errors.ConfigInvalid("stage prior must be 'uniform' or 'dirichlet', got '" + c.Prior.Kind + "'")
	}
	return nil
}

func isAllowedAlgorithm(name string) bool {
	for _, a := range AllowedAlgorithms {
		if a == name {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvFloats parses a comma-separated float list, e.g. "1,2,1".
func getEnvFloats(key string) []float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}
