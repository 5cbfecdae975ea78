package ebm

import (
	"math/rand"
	"testing"
)

func TestOrderValidate(t *testing.T) {
	t.Run("valid bijection", func(t *testing.T) {
		order := Order{"A": 1, "B": 2, "C": 3}
		if err := order.Validate(); err != nil {
			t.Errorf("Expected valid order, got: %v", err)
		}
	})

	t.Run("duplicate stage", func(t *testing.T) {
		order := Order{"A": 1, "B": 1, "C": 3}
		if err := order.Validate(); err == nil {
			t.Error("Expected error for duplicate stage")
		}
	})

	t.Run("stage out of range", func(t *testing.T) {
		order := Order{"A": 1, "B": 2, "C": 4}
		if err := order.Validate(); err == nil {
			t.Error("Expected error for stage outside 1..N")
		}
	})

	t.Run("zero stage", func(t *testing.T) {
		order := Order{"A": 0, "B": 1, "C": 2}
		if err := order.Validate(); err == nil {
			t.Error("Expected error for stage 0")
		}
	})

	t.Run("empty order", func(t *testing.T) {
		if err := (Order{}).Validate(); err == nil {
			t.Error("Expected error for empty order")
		}
	})
}

func TestNewRandomOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	biomarkers := []Biomarker{"A", "B", "C", "D", "E"}

	for i := 0; i < 100; i++ {
		order := NewRandomOrder(rng, biomarkers)
		if err := order.Validate(); err != nil {
			t.Fatalf("Random order %d is invalid: %v", i, err)
		}
		if len(order) != len(biomarkers) {
			t.Fatalf("Expected %d biomarkers, got %d", len(biomarkers), len(order))
		}
	}
}

func TestOrderClone(t *testing.T) {
	original := Order{"A": 1, "B": 2, "C": 3}
	clone := original.Clone()

	clone["A"] = 3
	clone["C"] = 1

	if original["A"] != 1 || original["C"] != 3 {
		t.Error("Mutating the clone changed the original")
	}
	if !original.Equal(Order{"A": 1, "B": 2, "C": 3}) {
		t.Error("Original order no longer matches its initial value")
	}
}

func TestOrderEqual(t *testing.T) {
	a := Order{"A": 1, "B": 2}
	b := Order{"A": 1, "B": 2}
	c := Order{"A": 2, "B": 1}

	if !a.Equal(b) {
		t.Error("Expected identical orders to be equal")
	}
	if a.Equal(c) {
		t.Error("Expected different orders to be unequal")
	}
	if a.Equal(Order{"A": 1}) {
		t.Error("Expected orders of different size to be unequal")
	}
}

func TestOrderByStage(t *testing.T) {
	order := Order{"A": 3, "B": 1, "C": 2}
	got := order.ByStage()
	want := []Biomarker{"B", "C", "A"}
	for i, bm := range want {
		if got[i] != bm {
			t.Errorf("ByStage[%d] = %s, want %s", i, got[i], bm)
		}
	}
}

func TestOrderStageValues(t *testing.T) {
	order := Order{"B": 1, "A": 3, "C": 2}
	got := order.StageValues()
	// Biomarker-name order: A, B, C.
	want := []float64{3, 1, 2}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("StageValues[%d] = %v, want %v", i, got[i], v)
		}
	}
}
