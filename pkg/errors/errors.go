// Package errors provides structured error types for graphjson.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the codec, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Non-fatal diagnostics that share the same codes as fatal errors
//
// # Error Codes
//
// Codes fall into three groups:
//   - STRUCTURAL: the token stream is malformed or has the wrong shape; decoding stops
//   - diagnostic codes (UNKNOWN_*, UNRESOLVED_*, INVALID_*, OPERATION_FAILED):
//     recorded on the document while decoding continues
//   - CONFIGURATION / NOT_FOUND / NETWORK / INTERNAL: collaborators and I/O
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStructural, "expected array for %s", field)
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // abort the document
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Fatal decode errors
	ErrCodeStructural Code = "STRUCTURAL"

	// Diagnostics recorded on a document
	ErrCodeUnknownField        Code = "UNKNOWN_FIELD"
	ErrCodeUnknownType         Code = "UNKNOWN_TYPE"
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeInvalidValue        Code = "INVALID_VALUE"
	ErrCodeInvalidKey          Code = "INVALID_KEY"
	ErrCodeOperationFailed     Code = "OPERATION_FAILED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidSchema Code = "INVALID_SCHEMA"
	ErrCodeInvalidURI    Code = "INVALID_URI"

	// Collaborator errors
	ErrCodeConfiguration Code = "CONFIGURATION"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Fatal reports whether errors with this code abort a decode.
func (c Code) Fatal() bool {
	switch c {
	case ErrCodeUnknownField, ErrCodeUnknownType, ErrCodeUnresolvedReference,
		ErrCodeInvalidValue, ErrCodeInvalidKey, ErrCodeOperationFailed:
		return false
	}
	return true
}

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
