package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxSelectionLength bounds long ids accepted from callers.
const maxSelectionLength = 512

// ValidateSelection validates a long id supplied by a caller (CLI argument,
// query parameter) before it is looked up in a graph.
//
// The rules are conservative:
//   - No empty selections
//   - No control characters (labels use newlines, keys never do)
//   - Maximum length of 512 characters
func ValidateSelection(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "individual cannot be empty")
	}

	if len(key) > maxSelectionLength {
		return New(ErrCodeInvalidInput, "individual too long (max %d characters)", maxSelectionLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "individual contains invalid control characters")
		}
	}

	return nil
}

// ValidateUploadName validates the filename of an uploaded GEDCOM file.
// It must be a simple basename with a .ged extension.
func ValidateUploadName(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	}

	if strings.ContainsRune(filename, '\x00') {
		return New(ErrCodeInvalidInput, "filename contains invalid characters")
	}

	if !strings.EqualFold(filepath.Ext(filename), ".ged") {
		return New(ErrCodeInvalidInput, "%q is not a GEDCOM file (expected .ged extension)", filename)
	}

	return nil
}
