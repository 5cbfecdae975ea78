package ebm

import (
	"testing"
)

func TestTraceAppendClones(t *testing.T) {
	trace := NewTrace(4)
	order := Order{"A": 1, "B": 2, "C": 3}
	trace.Append(order, -10.5)

	// Mutating the caller's order after the fact must not rewrite history.
	order["A"] = 3
	order["C"] = 1

	recorded := trace.Entry(0).Order
	if recorded["A"] != 1 || recorded["C"] != 3 {
		t.Error("Recorded entry changed when the appended order was mutated")
	}
	if trace.Entry(0).LogLikelihood != -10.5 {
		t.Errorf("Expected log-likelihood -10.5, got %v", trace.Entry(0).LogLikelihood)
	}
}

func TestTraceRetained(t *testing.T) {
	trace := NewTrace(10)
	for i := 0; i < 10; i++ {
		trace.Append(Order{"A": 1, "B": 2}, float64(i))
	}

	t.Run("burn-in drops prefix", func(t *testing.T) {
		got := trace.Retained(6, 1)
		if len(got) != 4 {
			t.Fatalf("Expected 4 entries, got %d", len(got))
		}
		if got[0].LogLikelihood != 6 {
			t.Errorf("Expected first retained entry at index 6, got %v", got[0].LogLikelihood)
		}
	})

	t.Run("thinning keeps every k-th", func(t *testing.T) {
		got := trace.Retained(0, 3)
		want := []float64{0, 3, 6, 9}
		if len(got) != len(want) {
			t.Fatalf("Expected %d entries, got %d", len(want), len(got))
		}
		for i, w := range want {
			if got[i].LogLikelihood != w {
				t.Errorf("Retained[%d] = %v, want %v", i, got[i].LogLikelihood, w)
			}
		}
	})

	t.Run("combined", func(t *testing.T) {
		got := trace.Retained(4, 2)
		want := []float64{4, 6, 8}
		if len(got) != len(want) {
			t.Fatalf("Expected %d entries, got %d", len(want), len(got))
		}
		for i, w := range want {
			if got[i].LogLikelihood != w {
				t.Errorf("Retained[%d] = %v, want %v", i, got[i].LogLikelihood, w)
			}
		}
	})

	t.Run("burn-in past end", func(t *testing.T) {
		if got := trace.Retained(20, 1); len(got) != 0 {
			t.Errorf("Expected no entries, got %d", len(got))
		}
	})
}

func TestThetaPhiClone(t *testing.T) {
	store := ThetaPhi{
		"A": {Theta: StateParams{Mean: 10, Std: 1}, Phi: StateParams{Mean: 0, Std: 1}},
	}
	clone := store.Clone()
	clone["A"] = BiomarkerFit{Theta: StateParams{Mean: -5, Std: 2}}

	if store["A"].Theta.Mean != 10 {
		t.Error("Mutating the clone changed the original store")
	}
}
