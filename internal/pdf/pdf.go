// Package pdf provides the PDF operations behind form filling, built on pdfcpu.
//
// Functions:
//   - Fields: Lists the AcroForm fields of a template.
//   - Fill: Writes a copy of a template with field values applied.
//   - Validate: Checks that uploaded bytes are a readable PDF.
//   - MergePDFs: Merges multiple PDF files into a single output file.
//   - RemoveBookmarks: Removes bookmarks from a PDF file in-place.
//
// These functions are used by the formfill service on behalf of the API
// handlers, the web views, the MCP tools and the CLI.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Magic is the header every PDF file starts with.
const Magic = "%PDF-"

var ErrNotPDF = errors.New("not a PDF file")

func newConfig() *model.Configuration {
	config := model.NewDefaultConfiguration()
	config.ValidationMode = model.ValidationRelaxed
	return config
}

// HasMagic reports whether rs starts with the PDF header. The read position
// is restored.
func HasMagic(rs io.ReadSeeker) (bool, error) {
	header := make([]byte, len(Magic))
	n, err := io.ReadFull(rs, header)
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		return false, serr
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(Magic) && bytes.Equal(header, []byte(Magic)), nil
}

// Validate checks the magic header and runs pdfcpu's relaxed validation.
func Validate(rs io.ReadSeeker) error {
	ok, err := HasMagic(rs)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if !ok {
		return ErrNotPDF
	}
	if err := pdfapi.Validate(rs, newConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return nil
}

func MergePDFs(files []string, outputPath string) error {
	return pdfapi.MergeCreateFile(files, outputPath, false, newConfig())
}

func RemoveBookmarks(pdfPath string) error {
	return pdfapi.RemoveBookmarksFile(pdfPath, pdfPath, newConfig())
}
