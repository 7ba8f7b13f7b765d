// Package errors provides structured error types for the enrichmap application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages naming the offending column or binding
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - CONFIG_*: Configuration failures (missing bindings, ambiguous inputs).
//     These are fatal and never retried.
//   - DATA_*: Data-shape failures (empty selections, no enriched categories).
//     These are fatal for the graph being built but do not invalidate
//     matrices already computed.
//   - INTERNAL_*: Unexpected internal errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingBinding, "no column found for role %q", role)
//	if errors.Is(err, errors.ErrCodeMissingBinding) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidTable, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors: fatal, surfaced immediately, no retry.
	ErrCodeMissingBinding   Code = "CONFIG_MISSING_BINDING"
	ErrCodeDuplicateKey     Code = "CONFIG_DUPLICATE_KEY"
	ErrCodeInvalidGeneRatio Code = "CONFIG_INVALID_GENE_RATIO"
	ErrCodeInvalidTable     Code = "CONFIG_INVALID_TABLE"
	ErrCodeInvalidColor     Code = "CONFIG_INVALID_COLOR"
	ErrCodeInvalidOption    Code = "CONFIG_INVALID_OPTION"
	ErrCodeNoSources        Code = "CONFIG_NO_SOURCES"

	// Data-shape errors: fatal for the graph being built only.
	ErrCodeEmptySelection Code = "DATA_EMPTY_SELECTION"
	ErrCodeNoEnriched     Code = "DATA_NO_ENRICHED_CATEGORIES"
	ErrCodeShapeMismatch  Code = "DATA_SHAPE_MISMATCH"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

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

// IsConfiguration reports whether err carries a CONFIG_* code.
// Configuration errors are caller mistakes and are never retried.
func IsConfiguration(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "CONFIG_")
}

// IsDataShape reports whether err carries a DATA_* code.
// Data-shape errors abort the graph being built, not the whole pipeline run.
func IsDataShape(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "DATA_")
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
