package data

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"goebm/domain/ebm"
	"goebm/internal/errors"
)

// WriteCSV writes measurement records in the canonical column layout the
// Reader expects, so generated cohorts round-trip through the loader.
func WriteCSV(path string, records []ebm.Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{colParticipant, colBiomarker, colMeasurement, colDiseased}); err != nil {
		return err
	}

	sorted := append([]ebm.Measurement(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ParticipantID != sorted[j].ParticipantID {
			return sorted[i].ParticipantID < sorted[j].ParticipantID
		}
		return sorted[i].Biomarker < sorted[j].Biomarker
	})

	for _, rec := range sorted {
		row := []string{
			strconv.Itoa(rec.ParticipantID),
			string(rec.Biomarker),
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
			strconv.FormatBool(rec.Diseased),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
