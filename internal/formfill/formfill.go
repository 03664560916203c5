// Package formfill is the form filling service shared by the JSON API, the
// web views, the MCP tools and the CLI.
//
// A Service owns three flat directories: PDF templates, CSV datasets and
// generated outputs. Filling reads the template's AcroForm fields (through a
// FieldCache), picks one or more rows from a dataset and writes a filled PDF.
// Several rows are filled one by one and merged into a single document.
package formfill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-formfill/internal/cache"
	"go-formfill/internal/dataset"
	"go-formfill/internal/pdf"
	"go-formfill/internal/storage"
	"go-formfill/internal/utils"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidPDF       = errors.New("invalid PDF file")
	ErrInvalidDataset   = errors.New("invalid CSV file")
	ErrMissingParams    = errors.New("template and csv required")
	ErrEmptyDataset     = errors.New("CSV is empty")
	ErrNoFields         = errors.New("PDF has no form fields")
	ErrUnmatchedColumns = errors.New("CSV columns do not match PDF fields")
	ErrRowOutOfRange    = errors.New("row out of range")
)

type Service struct {
	Templates *storage.Store
	Datasets  *storage.Store
	Outputs   *storage.Store
	Cache     cache.FieldCache
}

// New creates the three stores under the given directories. A nil fc
// selects the in-memory field cache.
func New(templatesDir, dataDir, outputDir string, fc cache.FieldCache) (*Service, error) {
	templates, err := storage.New(templatesDir, ".pdf")
	if err != nil {
		return nil, err
	}
	datasets, err := storage.New(dataDir, ".csv")
	if err != nil {
		return nil, err
	}
	outputs, err := storage.New(outputDir, ".pdf")
	if err != nil {
		return nil, err
	}
	if fc == nil {
		fc = cache.NewMemory()
	}
	return &Service{Templates: templates, Datasets: datasets, Outputs: outputs, Cache: fc}, nil
}

// translate maps storage errors onto the service's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrInvalidName):
		return ErrInvalidName
	case errors.Is(err, storage.ErrNotExist):
		return ErrNotFound
	}
	return err
}

func (s *Service) ListTemplates() ([]string, error) { return s.Templates.List() }

func (s *Service) ListDatasets() ([]string, error) { return s.Datasets.List() }

// MatchingDatasets lists the datasets whose name starts with the template's
// base name.
func (s *Service) MatchingDatasets(template string) ([]string, error) {
	names, err := s.Datasets.List()
	if err != nil {
		return nil, err
	}
	return dataset.MatchingFor(template, names), nil
}

// SaveTemplate stores an uploaded template under its sanitized name and
// returns that name. The upload must carry a .pdf extension and pass
// validation. An existing template of the same name is replaced.
func (s *Service) SaveTemplate(ctx context.Context, filename string, r io.ReadSeeker) (string, error) {
	name := utils.SanitizeFilename(filename)
	if name == "" || !utils.HasExt(name, ".pdf") {
		return "", ErrInvalidName
	}
	if err := pdf.Validate(r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if err := s.Templates.Save(name, r); err != nil {
		return "", translate(err)
	}
	if err := s.Cache.Invalidate(ctx, name); err != nil {
		log.Printf("[WARN] invalidate field cache for %s: %v", name, err)
	}
	log.Printf("[INFO] template %s saved", name)
	return name, nil
}

// SaveDataset stores an uploaded CSV under its sanitized name. The content
// must parse as CSV.
func (s *Service) SaveDataset(filename string, r io.Reader) (string, error) {
	name := utils.SanitizeFilename(filename)
	if name == "" || !utils.HasExt(name, ".csv") {
		return "", ErrInvalidName
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if _, err := dataset.Parse(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := s.Datasets.Save(name, bytes.NewReader(data)); err != nil {
		return "", translate(err)
	}
	log.Printf("[INFO] dataset %s saved", name)
	return name, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, name string) error {
	if err := s.Templates.Delete(name); err != nil {
		return translate(err)
	}
	if err := s.Cache.Invalidate(ctx, name); err != nil {
		log.Printf("[WARN] invalidate field cache for %s: %v", name, err)
	}
	log.Printf("[INFO] template %s deleted", name)
	return nil
}

func (s *Service) DeleteDataset(name string) error {
	if err := s.Datasets.Delete(name); err != nil {
		return translate(err)
	}
	log.Printf("[INFO] dataset %s deleted", name)
	return nil
}

// TemplatePath returns the on-disk path of an existing template.
func (s *Service) TemplatePath(name string) (string, error) {
	if _, err := s.Templates.Stat(name); err != nil {
		return "", translate(err)
	}
	return s.Templates.Path(name)
}

// Fields returns the template's fields, served from the cache while the
// template file is unchanged.
func (s *Service) Fields(ctx context.Context, template string) ([]pdf.Field, error) {
	info, err := s.Templates.Stat(template)
	if err != nil {
		return nil, translate(err)
	}
	version := cache.Version(info)
	fields, ok, err := s.Cache.Get(ctx, template, version)
	if err != nil {
		log.Printf("[WARN] field cache lookup for %s: %v", template, err)
	}
	if ok {
		return fields, nil
	}

	f, err := s.Templates.Open(template)
	if err != nil {
		return nil, translate(err)
	}
	defer f.Close()
	fields, err = pdf.Fields(f)
	if err != nil {
		return nil, fmt.Errorf("read fields of %s: %w", template, err)
	}
	if err := s.Cache.Set(ctx, template, version, fields); err != nil {
		log.Printf("[WARN] field cache store for %s: %v", template, err)
	}
	return fields, nil
}

// Dataset parses a stored CSV.
func (s *Service) Dataset(name string) (*dataset.Dataset, error) {
	f, err := s.Datasets.Open(name)
	if err != nil {
		return nil, translate(err)
	}
	defer f.Close()
	ds, err := dataset.Parse(f)
	if errors.Is(err, dataset.ErrEmpty) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return ds, nil
}

// RawDataset returns a stored CSV unparsed.
func (s *Service) RawDataset(name string) ([]byte, error) {
	data, err := s.Datasets.ReadFile(name)
	return data, translate(err)
}

// PurgeOutputs removes generated files older than maxAge and returns how
// many were removed.
func (s *Service) PurgeOutputs(maxAge time.Duration) (int, error) {
	dir := s.Outputs.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Printf("[WARN] remove expired output %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// baseName strips the extension from a file name.
func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
