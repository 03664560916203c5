// Package dataset parses the CSV files that provide form values.
//
// The first record is the header; its cells name the PDF form fields. Every
// following record is one fill. Rows are normalised to the header width so
// callers can index columns without bounds checks.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var ErrEmpty = errors.New("CSV is empty")

type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func Parse(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	ds := &Dataset{Columns: make([]string, len(header)), Rows: [][]string{}}
	for i, col := range header {
		ds.Columns[i] = strings.TrimSpace(col)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		row := make([]string, len(ds.Columns))
		copy(row, record)
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (d *Dataset) Len() int { return len(d.Rows) }

// Record returns row i keyed by column name. Columns with an empty header
// are skipped.
func (d *Dataset) Record(i int) (map[string]string, error) {
	if i < 0 || i >= len(d.Rows) {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, len(d.Rows))
	}
	rec := make(map[string]string, len(d.Columns))
	for j, col := range d.Columns {
		if col == "" {
			continue
		}
		rec[col] = d.Rows[i][j]
	}
	return rec, nil
}

// CompanionName is the dataset the UI loads for a template: same base name
// with a .csv extension.
func CompanionName(template string) string {
	return strings.TrimSuffix(template, filepath.Ext(template)) + ".csv"
}

// MatchingFor filters names down to CSV files whose name starts with the
// template's base name.
func MatchingFor(template string, names []string) []string {
	base := strings.TrimSuffix(template, filepath.Ext(template))
	out := []string{}
	for _, name := range names {
		if strings.EqualFold(filepath.Ext(name), ".csv") && strings.HasPrefix(name, base) {
			out = append(out, name)
		}
	}
	return out
}
