// Package data loads measurement tables from CSV or Excel files and
// ground-truth orders from JSON. All loading happens once, before sampling.
package data

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"goebm/domain/ebm"
	"goebm/internal/errors"
	"goebm/ports"
)

// Required measurement columns; any additional columns pass through into
// Measurement.Extra untouched.
const (
	colParticipant = "participant"
	colBiomarker   = "biomarker"
	colMeasurement = "measurement"
	colDiseased    = "diseased"
)

// Reader handles reading measurement tables from CSV and XLSX files.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader that handles both Excel and CSV files, keyed by
// file extension.
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Read loads and groups all measurement records.
func (r *Reader) Read() (*ebm.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound("data file " + r.filePath)
	}

	var rows [][]string
	var err error
	if r.fileType == "xlsx" {
		rows, err = r.readExcelRows()
	} else {
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", r.filePath)
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("data file has no measurement rows")
	}

	records, err := parseRows(rows)
	if err != nil {
		return nil, err
	}
	ds, err := ebm.NewDataset(records)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "grouping measurements")
	}
	return ds, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func parseRows(rows [][]string) ([]ebm.Measurement, error) {
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colParticipant, colBiomarker, colMeasurement, colDiseased} {
		if _, ok := index[required]; !ok {
			return nil, errors.InvalidInput("data file is missing required column '" + required + "'")
		}
	}

	var records []ebm.Measurement
	for rowNum, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		get := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		pid, err := strconv.Atoi(get(colParticipant))
		if err != nil {
			return nil, errors.InvalidInput("row " + strconv.Itoa(rowNum+2) + ": bad participant id")
		}
		value, err := strconv.ParseFloat(get(colMeasurement), 64)
		if err != nil {
			return nil, errors.InvalidInput("row " + strconv.Itoa(rowNum+2) + ": bad measurement value")
		}
		diseased, err := parseBool(get(colDiseased))
		if err != nil {
			return nil, errors.InvalidInput("row " + strconv.Itoa(rowNum+2) + ": bad diseased flag")
		}

		rec := ebm.Measurement{
			ParticipantID: pid,
			Biomarker:     ebm.Biomarker(get(colBiomarker)),
			Value:         value,
			Diseased:      diseased,
		}
		for name, i := range index {
			switch name {
			case colParticipant, colBiomarker, colMeasurement, colDiseased:
			default:
				if i < len(row) {
					if rec.Extra == nil {
						rec.Extra = make(map[string]string)
					}
					rec.Extra[name] = strings.TrimSpace(row[i])
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// OrderFile reads a ground-truth ordering from a JSON object mapping
// biomarker names to stages.
type OrderFile struct {
	filePath string
}

// NewOrderFile creates a ground-truth order reader.
func NewOrderFile(filePath string) *OrderFile {
	return &OrderFile{filePath: filePath}
}

// ReadOrder loads and validates the order.
func (o *OrderFile) ReadOrder() (ebm.Order, error) {
	raw, err := os.ReadFile(o.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading order file %s", o.filePath)
	}
	var order ebm.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "parsing order file")
	}
	if err := order.Validate(); err != nil {
		return nil, errors.InvalidOrder(err.Error())
	}
	return order, nil
}

var (
	_ ports.MeasurementReader = (*Reader)(nil)
	_ ports.OrderReader       = (*OrderFile)(nil)
)
