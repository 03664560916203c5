// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const onAppearance = "q 0 0 0 rg 2 2 8 8 re f Q"

// FormPDF returns a one page document with an AcroForm holding:
//
//	name           text
//	city           text
//	agree          checkbox, export value Yes
//	color          radio group, options Red and Blue
//	address.street text, nested under a non-terminal parent
func FormPDF() []byte {
	objs := []string{
		1:  `<< /Type /Catalog /Pages 2 0 R /AcroForm 3 0 R >>`,
		2:  `<< /Type /Pages /Kids [4 0 R] /Count 1 >>`,
		3:  `<< /Fields [5 0 R 6 0 R 7 0 R 8 0 R 14 0 R] /DR << /Font << /Helv 9 0 R >> >> /DA (/Helv 0 Tf 0 g) >>`,
		4:  `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /Helv 9 0 R >> >> /Annots [5 0 R 6 0 R 7 0 R 10 0 R 11 0 R 15 0 R] >>`,
		5:  `<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /Rect [50 700 300 720] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) >>`,
		6:  `<< /Type /Annot /Subtype /Widget /FT /Tx /T (city) /Rect [50 670 300 690] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) >>`,
		7:  `<< /Type /Annot /Subtype /Widget /FT /Btn /T (agree) /Rect [50 640 62 652] /P 4 0 R /F 4 /V /Off /AS /Off /MK << >> /AP << /N << /Yes 12 0 R /Off 13 0 R >> >> >>`,
		8:  `<< /FT /Btn /Ff 49152 /T (color) /V /Off /Kids [10 0 R 11 0 R] >>`,
		9:  `<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>`,
		10: `<< /Type /Annot /Subtype /Widget /Parent 8 0 R /Rect [50 610 62 622] /P 4 0 R /F 4 /AS /Off /MK << >> /AP << /N << /Red 12 0 R /Off 13 0 R >> >> >>`,
		11: `<< /Type /Annot /Subtype /Widget /Parent 8 0 R /Rect [80 610 92 622] /P 4 0 R /F 4 /AS /Off /MK << >> /AP << /N << /Blue 12 0 R /Off 13 0 R >> >> >>`,
		12: stream(`/Type /XObject /Subtype /Form /BBox [0 0 12 12]`, onAppearance),
		13: stream(`/Type /XObject /Subtype /Form /BBox [0 0 12 12]`, ""),
		14: `<< /T (address) /Kids [15 0 R] >>`,
		15: `<< /Type /Annot /Subtype /Widget /FT /Tx /T (street) /Parent 14 0 R /Rect [50 580 300 600] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) >>`,
	}
	return build(objs)
}

// PlainPDF returns a one page document without a form.
func PlainPDF() []byte {
	objs := []string{
		1: `<< /Type /Catalog /Pages 2 0 R >>`,
		2: `<< /Type /Pages /Kids [3 0 R] /Count 1 >>`,
		3: `<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>`,
		4: stream("", "72 720 m 300 720 l S"),
	}
	return build(objs)
}

// Write stores data under dir/name and returns the path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func stream(dict, content string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content)
}

// build serialises objs (index = object number, 0 unused) with a classic
// cross reference table.
func build(objs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objs))
	for nr := 1; nr < len(objs); nr++ {
		offsets[nr] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", nr, objs[nr])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs))
	buf.WriteString("0000000000 65535 f \n")
	for nr := 1; nr < len(objs); nr++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[nr])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs), xref)
	return buf.Bytes()
}
