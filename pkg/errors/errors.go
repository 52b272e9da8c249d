// Package errors provides structured error types for Astra.
//
// Every failure the graph core can produce falls into one of three families:
//
//   - Validation errors: the uploaded file is not usable (bad header, duplicate
//     individual identifiers, invalid color values). Processing stops and no
//     partial graph is produced.
//   - Format violations: the GEDCOM parser cannot interpret a line or structure.
//     The cause is structural, so callers should suggest re-exporting the file.
//   - Stale references: a selection (root or highlighted individual) names a
//     long id that is not part of the current graph, usually because the file
//     changed and the caller kept its old selection.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateID, "%s duplicated", id)
//	if errors.IsValidation(err) {
//	    // Reject the upload
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidHeader Code = "INVALID_HEADER"
	ErrCodeDuplicateID   Code = "DUPLICATE_ID"
	ErrCodeInvalidColor  Code = "INVALID_COLOR"

	// Parser errors
	ErrCodeFormatViolation Code = "FORMAT_VIOLATION"

	// Caller contract violations
	ErrCodeStaleReference Code = "STALE_REFERENCE"
	ErrCodeNotFound       Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// reexportHint is appended to format violations in user-facing messages.
const reexportHint = "The parser cannot process the GEDCOM file, possibly because of custom or unrecognized tags. " +
	"This can usually be solved by opening the file in Gramps (https://gramps-project.org) and re-exporting it."

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err rejects the input file or an option value.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidHeader, ErrCodeDuplicateID, ErrCodeInvalidColor:
		return true
	}
	return false
}

// IsFormatViolation reports whether err came from the GEDCOM grammar.
func IsFormatViolation(err error) bool {
	return Is(err, ErrCodeFormatViolation)
}

// IsStaleReference reports whether err is a selection that no longer exists.
func IsStaleReference(err error) bool {
	return Is(err, ErrCodeStaleReference)
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix; format
// violations additionally carry re-export guidance.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Code == ErrCodeFormatViolation {
			return reexportHint + " (" + e.Message + ")"
		}
		return e.Message
	}
	return err.Error()
}
