package data

import (
	"os"
	"path/filepath"
	"testing"

	"goebm/domain/ebm"
)

func TestCSVRoundTrip(t *testing.T) {
	records := []ebm.Measurement{
		{ParticipantID: 2, Biomarker: "HIP", Value: 1.25, Diseased: false},
		{ParticipantID: 1, Biomarker: "AB", Value: 10.5, Diseased: true},
		{ParticipantID: 1, Biomarker: "HIP", Value: -0.75, Diseased: true},
		{ParticipantID: 2, Biomarker: "AB", Value: 0.5, Diseased: false},
	}

	path := filepath.Join(t.TempDir(), "cohort.csv")
	if err := WriteCSV(path, records); err != nil {
		t.Fatalf("Writing CSV: %v", err)
	}

	ds, err := NewReader(path).Read()
	if err != nil {
		t.Fatalf("Reading CSV: %v", err)
	}

	if ds.NumParticipants() != 2 || ds.NumBiomarkers() != 2 {
		t.Fatalf("Expected 2x2 dataset, got %dx%d", ds.NumParticipants(), ds.NumBiomarkers())
	}
	p1 := ds.Participant(1)
	if !p1.Diseased {
		t.Error("Participant 1 lost its diseased flag")
	}
	// Sorted biomarker order: AB before HIP.
	if p1.Values[0] != 10.5 || p1.Values[1] != -0.75 {
		t.Errorf("Participant 1 values misaligned: %v", p1.Values)
	}
	if ds.Participant(2).Diseased {
		t.Error("Participant 2 gained a diseased flag")
	}
}

func TestReadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "participant,biomarker,measurement\n1,AB,0.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Writing file: %v", err)
	}

	if _, err := NewReader(path).Read(); err == nil {
		t.Error("Expected error for missing diseased column")
	}
}

func TestReadExtraColumnsPassThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.csv")
	content := "participant,biomarker,measurement,diseased,site\n" +
		"1,AB,0.5,true,boston\n" +
		"1,HIP,1.5,true,boston\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Writing file: %v", err)
	}

	ds, err := NewReader(path).Read()
	if err != nil {
		t.Fatalf("Reading CSV: %v", err)
	}
	recs := ds.Records()
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Extra["site"] != "boston" {
			t.Errorf("Extra column lost: %+v", rec.Extra)
		}
	}
}

func TestReadBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad participant id", "participant,biomarker,measurement,diseased\nabc,AB,0.5,true\n"},
		{"bad measurement", "participant,biomarker,measurement,diseased\n1,AB,xyz,true\n"},
		{"bad diseased flag", "participant,biomarker,measurement,diseased\n1,AB,0.5,maybe\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("Writing file: %v", err)
			}
			if _, err := NewReader(path).Read(); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := NewReader("/nonexistent/cohort.csv").Read(); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestOrderFile(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "order.json")
		if err := os.WriteFile(path, []byte(`{"AB": 1, "HIP": 2, "PCC": 3}`), 0o644); err != nil {
			t.Fatalf("Writing file: %v", err)
		}
		order, err := NewOrderFile(path).ReadOrder()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if order["AB"] != 1 || order["HIP"] != 2 || order["PCC"] != 3 {
			t.Errorf("Unexpected order: %v", order)
		}
	})

	t.Run("invalid order rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "order.json")
		if err := os.WriteFile(path, []byte(`{"AB": 1, "HIP": 1}`), 0o644); err != nil {
			t.Fatalf("Writing file: %v", err)
		}
		if _, err := NewOrderFile(path).ReadOrder(); err == nil {
			t.Error("Expected error for duplicate stages")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "order.json")
		if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
			t.Fatalf("Writing file: %v", err)
		}
		if _, err := NewOrderFile(path).ReadOrder(); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}
