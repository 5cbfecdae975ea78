package ebm

import (
	"testing"
)

func TestNewDataset(t *testing.T) {
	t.Run("groups both ways", func(t *testing.T) {
		ds, err := NewDataset([]Measurement{
			{ParticipantID: 1, Biomarker: "B", Value: 2.0, Diseased: true},
			{ParticipantID: 1, Biomarker: "A", Value: 1.0, Diseased: true},
			{ParticipantID: 2, Biomarker: "A", Value: 3.0, Diseased: false},
			{ParticipantID: 2, Biomarker: "B", Value: 4.0, Diseased: false},
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if ds.NumBiomarkers() != 2 || ds.NumParticipants() != 2 {
			t.Fatalf("Expected 2x2, got %dx%d", ds.NumParticipants(), ds.NumBiomarkers())
		}

		// Views are aligned in sorted biomarker order regardless of row order.
		p := ds.Participant(1)
		if p.Biomarkers[0] != "A" || p.Values[0] != 1.0 {
			t.Errorf("Expected participant 1 view to start with A=1, got %s=%v", p.Biomarkers[0], p.Values[0])
		}

		view := ds.ByBiomarker("A")
		if len(view.Values) != 2 || view.Values[0] != 1.0 || view.Values[1] != 3.0 {
			t.Errorf("Unexpected biomarker A view: %v", view.Values)
		}
		if !view.Diseased[0] || view.Diseased[1] {
			t.Error("Diseased flags misaligned in biomarker view")
		}

		healthy := ds.HealthyIDs()
		if len(healthy) != 1 || healthy[0] != 2 {
			t.Errorf("Expected healthy IDs [2], got %v", healthy)
		}
	})

	t.Run("missing cell", func(t *testing.T) {
		_, err := NewDataset([]Measurement{
			{ParticipantID: 1, Biomarker: "A", Value: 1.0, Diseased: true},
			{ParticipantID: 1, Biomarker: "B", Value: 2.0, Diseased: true},
			{ParticipantID: 2, Biomarker: "A", Value: 3.0, Diseased: false},
		})
		if err == nil {
			t.Error("Expected error for participant missing a biomarker")
		}
	})

	t.Run("duplicate cell", func(t *testing.T) {
		_, err := NewDataset([]Measurement{
			{ParticipantID: 1, Biomarker: "A", Value: 1.0, Diseased: true},
			{ParticipantID: 1, Biomarker: "A", Value: 2.0, Diseased: true},
		})
		if err == nil {
			t.Error("Expected error for duplicate measurement")
		}
	})

	t.Run("conflicting diseased labels", func(t *testing.T) {
		_, err := NewDataset([]Measurement{
			{ParticipantID: 1, Biomarker: "A", Value: 1.0, Diseased: true},
			{ParticipantID: 1, Biomarker: "B", Value: 2.0, Diseased: false},
		})
		if err == nil {
			t.Error("Expected error for conflicting diseased labels")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := NewDataset(nil); err == nil {
			t.Error("Expected error for empty record set")
		}
	})
}

func TestStagePriorWeights(t *testing.T) {
	t.Run("uniform", func(t *testing.T) {
		w, err := NewUniformPrior().Weights(4)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i, v := range w {
			if v != 0.25 {
				t.Errorf("weights[%d] = %v, want 0.25", i, v)
			}
		}
	})

	t.Run("dirichlet normalizes", func(t *testing.T) {
		prior, err := NewDirichletPrior([]float64{1, 2, 1})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		w, err := prior.Weights(3)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if w[1] != 0.5 || w[0] != 0.25 || w[2] != 0.25 {
			t.Errorf("Unexpected weights: %v", w)
		}
	})

	t.Run("dirichlet length mismatch", func(t *testing.T) {
		prior, _ := NewDirichletPrior([]float64{1, 1})
		if _, err := prior.Weights(3); err == nil {
			t.Error("Expected error for alpha/stage length mismatch")
		}
	})

	t.Run("non-positive alpha", func(t *testing.T) {
		if _, err := NewDirichletPrior([]float64{1, 0}); err == nil {
			t.Error("Expected error for zero alpha")
		}
	})
}

func TestStateParamsLogPDF(t *testing.T) {
	t.Run("peaks at mean", func(t *testing.T) {
		p := StateParams{Mean: 5, Std: 1}
		if p.LogPDF(5) <= p.LogPDF(8) {
			t.Error("Expected higher log density at the mean")
		}
	})

	t.Run("zero std does not panic", func(t *testing.T) {
		p := StateParams{Mean: 5, Std: 0}
		got := p.LogPDF(5)
		if got != got { // NaN check
			t.Error("Expected finite log density at the mean with floored sigma")
		}
	})
}
