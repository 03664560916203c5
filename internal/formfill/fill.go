package formfill

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-formfill/internal/pdf"
	"go-formfill/internal/utils"
)

// FillRequest selects a template and the values to apply. Values, when set,
// replace the dataset lookup and fill a single document.
type FillRequest struct {
	Template string
	CSV      string
	Rows     []int
	Values   map[string]string
}

type FillResult struct {
	Name string
	Rows int
	Data []byte
}

// Fill produces a filled copy of the template. Without explicit Rows the
// first dataset row is used. Every dataset column must name a template field.
func (s *Service) Fill(ctx context.Context, req FillRequest) (*FillResult, error) {
	if req.Template == "" || (req.CSV == "" && req.Values == nil) {
		return nil, ErrMissingParams
	}
	if err := s.Templates.CheckName(req.Template); err != nil {
		return nil, translate(err)
	}

	records, err := s.records(req)
	if err != nil {
		return nil, err
	}

	fields, err := s.Fields(ctx, req.Template)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	if err := checkColumns(fields, records[0]); err != nil {
		return nil, err
	}

	tpl, err := s.Templates.ReadFile(req.Template)
	if err != nil {
		return nil, translate(err)
	}

	if len(records) == 1 {
		var buf bytes.Buffer
		if err := pdf.Fill(bytes.NewReader(tpl), fields, records[0], &buf); err != nil {
			return nil, err
		}
		return &FillResult{Name: "filled_" + req.Template, Rows: 1, Data: buf.Bytes()}, nil
	}

	data, err := s.fillMerged(ctx, tpl, fields, records)
	if err != nil {
		return nil, err
	}
	return &FillResult{
		Name: fmt.Sprintf("filled_%s_%drows.pdf", baseName(req.Template), len(records)),
		Rows: len(records),
		Data: data,
	}, nil
}

// records resolves the request to one value map per output page set.
func (s *Service) records(req FillRequest) ([]map[string]string, error) {
	if req.Values != nil {
		return []map[string]string{req.Values}, nil
	}
	if err := s.Datasets.CheckName(req.CSV); err != nil {
		return nil, translate(err)
	}
	ds, err := s.Dataset(req.CSV)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	rows := req.Rows
	if len(rows) == 0 {
		rows = []int{0}
	}
	records := make([]map[string]string, 0, len(rows))
	for _, i := range rows {
		if i < 0 || i >= ds.Len() {
			return nil, fmt.Errorf("%w: %d (dataset has %d rows)", ErrRowOutOfRange, i, ds.Len())
		}
		rec, err := ds.Record(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// checkColumns rejects value keys that do not name a field.
func checkColumns(fields []pdf.Field, values map[string]string) error {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
	}
	var unmatched []string
	for col := range values {
		if !known[col] {
			unmatched = append(unmatched, col)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}
	sort.Strings(unmatched)
	return fmt.Errorf("%w: %s", ErrUnmatchedColumns, strings.Join(unmatched, ", "))
}

// fillMerged fills one copy per record and merges them in order. Scratch
// files live in the output directory and are removed before returning.
func (s *Service) fillMerged(ctx context.Context, tpl []byte, fields []pdf.Field, records []map[string]string) ([]byte, error) {
	dir := s.Outputs.Dir()
	id := utils.GenerateUUID()
	parts := make([]string, 0, len(records))
	defer func() {
		for _, p := range parts {
			os.Remove(p)
		}
	}()

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf(".part-%s-%03d.pdf", id, i))
		if err := fillFile(tpl, fields, rec, path); err != nil {
			return nil, fmt.Errorf("fill row %d: %w", i, err)
		}
		parts = append(parts, path)
	}

	merged := filepath.Join(dir, fmt.Sprintf(".merged-%s.pdf", id))
	defer os.Remove(merged)
	if err := pdf.MergePDFs(parts, merged); err != nil {
		return nil, fmt.Errorf("merge filled pages: %w", err)
	}
	if err := pdf.RemoveBookmarks(merged); err != nil {
		log.Printf("[WARN] remove bookmarks from merged output: %v", err)
	}
	return os.ReadFile(merged)
}

func fillFile(tpl []byte, fields []pdf.Field, values map[string]string, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pdf.Fill(bytes.NewReader(tpl), fields, values, out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// WriteOutput stores a result in the output directory under a unique name
// and returns that name.
func (s *Service) WriteOutput(res *FillResult) (string, error) {
	name := utils.GenerateUUID() + "-" + utils.SanitizeFilename(res.Name)
	if err := s.Outputs.Save(name, bytes.NewReader(res.Data)); err != nil {
		return "", translate(err)
	}
	return name, nil
}

// OutputPath returns the path of a stored output.
func (s *Service) OutputPath(name string) (string, error) {
	if _, err := s.Outputs.Stat(name); err != nil {
		return "", translate(err)
	}
	return s.Outputs.Path(name)
}
