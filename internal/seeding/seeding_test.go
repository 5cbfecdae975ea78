package seeding

import (
	"math/rand"
	"testing"

	"goebm/domain/ebm"
)

func TestInitialThetaPhi(t *testing.T) {
	records := []ebm.Measurement{
		{ParticipantID: 1, Biomarker: "A", Value: 10.1, Diseased: true},
		{ParticipantID: 1, Biomarker: "B", Value: 9.7, Diseased: true},
		{ParticipantID: 2, Biomarker: "A", Value: 9.9, Diseased: true},
		{ParticipantID: 2, Biomarker: "B", Value: 10.3, Diseased: true},
		{ParticipantID: 3, Biomarker: "A", Value: 0.2, Diseased: false},
		{ParticipantID: 3, Biomarker: "B", Value: -0.1, Diseased: false},
		{ParticipantID: 4, Biomarker: "A", Value: -0.3, Diseased: false},
		{ParticipantID: 4, Biomarker: "B", Value: 0.1, Diseased: false},
	}
	ds, err := ebm.NewDataset(records)
	if err != nil {
		t.Fatalf("Building dataset: %v", err)
	}

	t.Run("parametric", func(t *testing.T) {
		seed, err := InitialThetaPhi(rand.New(rand.NewSource(42)), ds, false)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, bm := range ds.Biomarkers() {
			fit, ok := seed[bm]
			if !ok {
				t.Fatalf("Missing seed for biomarker %s", bm)
			}
			if !fit.Theta.IsFinite() || !fit.Phi.IsFinite() {
				t.Errorf("Non-finite seed for %s: %+v", bm, fit)
			}
			// Healthy measurements anchor phi to the low cluster.
			if fit.Phi.Mean >= fit.Theta.Mean {
				t.Errorf("Expected phi mean below theta mean for %s, got phi=%v theta=%v",
					bm, fit.Phi.Mean, fit.Theta.Mean)
			}
		}
	})

	t.Run("non-parametric adds densities", func(t *testing.T) {
		seed, err := InitialThetaPhi(rand.New(rand.NewSource(42)), ds, true)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, bm := range ds.Biomarkers() {
			if seed[bm].Theta.Density == nil || seed[bm].Phi.Density == nil {
				t.Errorf("Expected fitted densities for %s", bm)
			}
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		first, err := InitialThetaPhi(rand.New(rand.NewSource(7)), ds, false)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		second, err := InitialThetaPhi(rand.New(rand.NewSource(7)), ds, false)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, bm := range ds.Biomarkers() {
			if first[bm] != second[bm] {
				t.Errorf("Seeding for %s is not reproducible", bm)
			}
		}
	})
}
