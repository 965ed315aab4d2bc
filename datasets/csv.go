// Package datasets loads tabular data and generates synthetic datasets.
package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Dataset is a feature matrix with its label column.
type Dataset struct {
	X            *mat.Dense
	Y            *mat.Dense // n×1
	FeatureNames []string
	LabelName    string

	// Categories holds, for every non-numeric column, its levels in the
	// order they were first seen. Level i is encoded as float64(i).
	Categories map[string][]string
}

// NSamples returns the number of rows.
func (d *Dataset) NSamples() int {
	r, _ := d.X.Dims()
	return r
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path, labelColumn string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "datasets: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ds, err := LoadCSV(f, labelColumn)
	if err != nil {
		return nil, errors.Wrapf(err, "datasets: load %s", path)
	}
	return ds, nil
}

// LoadCSV reads a CSV table with a header row. labelColumn names the
// column returned as Y; every other column becomes a feature. Columns whose
// values do not all parse as numbers are integer-encoded by first appearance.
func LoadCSV(r io.Reader, labelColumn string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "datasets: parse csv")
	}
	if len(records) == 0 {
		return nil, errors.NewValueError("LoadCSV", "csv is empty (no header row)")
	}

	header := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return nil, errors.NewModelError("LoadCSV", "no data rows", errors.ErrEmptyData)
	}

	labelIdx := -1
	for j, name := range header {
		if strings.TrimSpace(name) == labelColumn {
			labelIdx = j
			break
		}
	}
	if labelIdx < 0 {
		return nil, errors.NewValidationError("label_column", "column not found in header", labelColumn)
	}
	if len(header) < 2 {
		return nil, errors.NewValueError("LoadCSV", "csv has no feature columns besides the label")
	}

	columns := make([][]float64, len(header))
	categories := make(map[string][]string)
	for j, name := range header {
		values, levels, err := encodeColumn(rows, j)
		if err != nil {
			return nil, err
		}
		columns[j] = values
		if levels != nil {
			categories[strings.TrimSpace(name)] = levels
		}
	}

	n := len(rows)
	nFeatures := len(header) - 1
	X := mat.NewDense(n, nFeatures, nil)
	Y := mat.NewDense(n, 1, columns[labelIdx])
	names := make([]string, 0, nFeatures)

	col := 0
	for j, name := range header {
		if j == labelIdx {
			continue
		}
		X.SetCol(col, columns[j])
		names = append(names, strings.TrimSpace(name))
		col++
	}

	return &Dataset{
		X:            X,
		Y:            Y,
		FeatureNames: names,
		LabelName:    labelColumn,
		Categories:   categories,
	}, nil
}

// encodeColumn returns the numeric values of column j, or its category
// codes and levels when any cell fails to parse as a float.
func encodeColumn(rows [][]string, j int) ([]float64, []string, error) {
	values := make([]float64, len(rows))
	numeric := true
	for i, rec := range rows {
		if j >= len(rec) {
			return nil, nil, errors.NewValueError("LoadCSV",
				"row "+strconv.Itoa(i+2)+" has fewer columns than the header")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = v
	}
	if numeric {
		return values, nil, nil
	}

	codes := make(map[string]int)
	var levels []string
	for i, rec := range rows {
		cell := strings.TrimSpace(rec[j])
		code, ok := codes[cell]
		if !ok {
			code = len(levels)
			codes[cell] = code
			levels = append(levels, cell)
		}
		values[i] = float64(code)
	}
	return values, levels, nil
}
