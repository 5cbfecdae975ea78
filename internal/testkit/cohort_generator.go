package testkit

import (
	"math/rand"

	"goebm/domain/ebm"
)

// CohortConfig configures the synthetic cohort generator
type CohortConfig struct {
	GroundTruth ebm.Order                `json:"ground_truth"`
	Params      map[ebm.Biomarker]Params `json:"params"`
	DiseasedN   int                      `json:"diseased_n"`
	HealthyN    int                      `json:"healthy_n"`
	Seed        int64                    `json:"seed"`
}

// Params holds the generating distributions for one biomarker
type Params struct {
	ThetaMean float64 `json:"theta_mean"`
	ThetaStd  float64 `json:"theta_std"`
	PhiMean   float64 `json:"phi_mean"`
	PhiStd    float64 `json:"phi_std"`
}

// CohortGenerator generates synthetic cross-sectional EBM cohorts from a
// ground-truth order: each diseased participant draws a uniform random stage
// and emits theta values for biomarkers at or below that stage, phi values
// otherwise; healthy participants emit phi values everywhere.
type CohortGenerator struct {
	config CohortConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a new cohort generator
func NewCohortGenerator(config CohortConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces the full measurement table, grouped-ready for NewDataset.
func (g *CohortGenerator) Generate() []ebm.Measurement {
	n := len(g.config.GroundTruth)
	var records []ebm.Measurement

	pid := 0
	for i := 0; i < g.config.DiseasedN; i++ {
		stage := g.rng.Intn(n) + 1
		for bm, rank := range g.config.GroundTruth {
			p := g.config.Params[bm]
			var value float64
			if rank <= stage {
				value = p.ThetaMean + g.rng.NormFloat64()*p.ThetaStd
			} else {
				value = p.PhiMean + g.rng.NormFloat64()*p.PhiStd
			}
			records = append(records, ebm.Measurement{
				ParticipantID: pid,
				Biomarker:     bm,
				Value:         value,
				Diseased:      true,
			})
		}
		pid++
	}

	for i := 0; i < g.config.HealthyN; i++ {
		for bm := range g.config.GroundTruth {
			p := g.config.Params[bm]
			records = append(records, ebm.Measurement{
				ParticipantID: pid,
				Biomarker:     bm,
				Value:         p.PhiMean + g.rng.NormFloat64()*p.PhiStd,
				Diseased:      false,
			})
		}
		pid++
	}

	return records
}

// SeparatedParams builds well-separated generating parameters (abnormal mean
// far above normal mean) for every biomarker in the order.
func SeparatedParams(order ebm.Order) map[ebm.Biomarker]Params {
	params := make(map[ebm.Biomarker]Params, len(order))
	for bm := range order {
		params[bm] = Params{
			ThetaMean: 10.0,
			ThetaStd:  1.0,
			PhiMean:   0.0,
			PhiStd:    1.0,
		}
	}
	return params
}
