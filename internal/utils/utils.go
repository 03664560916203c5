// Package utils provides utility functions for filename sanitization and UUID generation.
//
// Functions:
//   - SanitizeFilename: Returns a safe filename for storage.
//     Input: string (filename)
//     Output: string (sanitized filename, "" when nothing usable is left)
//   - HasExt: Reports whether a filename carries an extension, ignoring case.
//   - GenerateUUID: Returns a new UUID string.
//     Output: string (UUID)
//
// Used throughout the backend for safe file handling and unique IDs.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxFilenameLen = 100

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	dotRuns     = regexp.MustCompile(`\.{2,}`)
)

func SanitizeFilename(name string) string {
	// Uploads from Windows browsers may carry backslash separated paths.
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	safe := unsafeChars.ReplaceAllString(base, "_")
	safe = strings.TrimLeft(safe, "._")
	if len(safe) > maxFilenameLen {
		ext := filepath.Ext(safe)
		if len(ext) >= maxFilenameLen {
			ext = ""
		}
		safe = safe[:maxFilenameLen-len(ext)] + ext
	}
	// Stores reject "..", so a stored name must never contain it.
	return dotRuns.ReplaceAllString(safe, ".")
}

func HasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

func GenerateUUID() string {
	return uuid.New().String()
}
