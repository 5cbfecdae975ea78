package ebm

import (
	"fmt"
	"sort"
)

// Measurement is a single cross-sectional observation of one biomarker for
// one participant. Records are immutable inputs; Extra carries passthrough
// columns the estimator does not interpret.
type Measurement struct {
	ParticipantID int
	Biomarker     Biomarker
	Value         float64
	Diseased      bool
	Extra         map[string]string
}

// ParticipantView groups one participant's measurements aligned by biomarker.
type ParticipantView struct {
	ID         int
	Diseased   bool
	Biomarkers []Biomarker
	Values     []float64
}

// BiomarkerView groups one biomarker's measurements aligned by participant.
type BiomarkerView struct {
	Biomarker    Biomarker
	Participants []int
	Values       []float64
	Diseased     []bool
}

// Dataset is the loaded measurement table grouped both ways for processing.
// It is built once before sampling starts and never mutated afterwards.
type Dataset struct {
	records      []Measurement
	participants map[int]*ParticipantView
	biomarkers   map[Biomarker]*BiomarkerView
	bmNames      []Biomarker
	pids         []int
}

// NewDataset groups raw measurement records by participant and by biomarker.
// Every participant must have exactly one measurement per biomarker.
func NewDataset(records []Measurement) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no measurement records")
	}

	ds := &Dataset{
		records:      records,
		participants: make(map[int]*ParticipantView),
		biomarkers:   make(map[Biomarker]*BiomarkerView),
	}

	bmSet := make(map[Biomarker]bool)
	for _, rec := range records {
		bmSet[rec.Biomarker] = true
	}
	for bm := range bmSet {
		ds.bmNames = append(ds.bmNames, bm)
	}
	sort.Slice(ds.bmNames, func(i, j int) bool { return ds.bmNames[i] < ds.bmNames[j] })

	// Index measurements per participant keyed by biomarker so views come out
	// aligned regardless of input row order.
	type cell struct {
		value float64
		seen  bool
	}
	perParticipant := make(map[int]map[Biomarker]cell)
	diseasedByID := make(map[int]bool)
	for _, rec := range records {
		row, ok := perParticipant[rec.ParticipantID]
		if !ok {
			row = make(map[Biomarker]cell, len(ds.bmNames))
			perParticipant[rec.ParticipantID] = row
			diseasedByID[rec.ParticipantID] = rec.Diseased
		}
		if diseasedByID[rec.ParticipantID] != rec.Diseased {
			return nil, fmt.Errorf("participant %d has conflicting diseased labels", rec.ParticipantID)
		}
		if row[rec.Biomarker].seen {
			return nil, fmt.Errorf("participant %d has duplicate measurement for %s", rec.ParticipantID, rec.Biomarker)
		}
		row[rec.Biomarker] = cell{value: rec.Value, seen: true}
	}

	for pid := range perParticipant {
		ds.pids = append(ds.pids, pid)
	}
	sort.Ints(ds.pids)

	for _, pid := range ds.pids {
		row := perParticipant[pid]
		view := &ParticipantView{
			ID:         pid,
			Diseased:   diseasedByID[pid],
			Biomarkers: make([]Biomarker, 0, len(ds.bmNames)),
			Values:     make([]float64, 0, len(ds.bmNames)),
		}
		for _, bm := range ds.bmNames {
			c, ok := row[bm]
			if !ok {
				return nil, fmt.Errorf("participant %d is missing a measurement for %s", pid, bm)
			}
			view.Biomarkers = append(view.Biomarkers, bm)
			view.Values = append(view.Values, c.value)
		}
		ds.participants[pid] = view
	}

	for _, bm := range ds.bmNames {
		view := &BiomarkerView{Biomarker: bm}
		for _, pid := range ds.pids {
			p := ds.participants[pid]
			for i, b := range p.Biomarkers {
				if b == bm {
					view.Participants = append(view.Participants, pid)
					view.Values = append(view.Values, p.Values[i])
					view.Diseased = append(view.Diseased, p.Diseased)
					break
				}
			}
		}
		ds.biomarkers[bm] = view
	}

	return ds, nil
}

// Biomarkers returns the biomarker names in sorted order.
func (ds *Dataset) Biomarkers() []Biomarker {
	return ds.bmNames
}

// ParticipantIDs returns all participant IDs in ascending order.
func (ds *Dataset) ParticipantIDs() []int {
	return ds.pids
}

// Participant returns the grouped view for one participant.
func (ds *Dataset) Participant(id int) *ParticipantView {
	return ds.participants[id]
}

// ByBiomarker returns the grouped view for one biomarker.
func (ds *Dataset) ByBiomarker(bm Biomarker) *BiomarkerView {
	return ds.biomarkers[bm]
}

// NumBiomarkers returns N, which is also the number of diseased stages.
func (ds *Dataset) NumBiomarkers() int {
	return len(ds.bmNames)
}

// NumParticipants returns the cohort size.
func (ds *Dataset) NumParticipants() int {
	return len(ds.pids)
}

// HealthyIDs returns the participants labeled non-diseased.
func (ds *Dataset) HealthyIDs() []int {
	var out []int
	for _, pid := range ds.pids {
		if !ds.participants[pid].Diseased {
			out = append(out, pid)
		}
	}
	return out
}

// Records returns the raw measurement records.
func (ds *Dataset) Records() []Measurement {
	return ds.records
}
