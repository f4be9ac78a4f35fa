// Package errors provides structured error types for patternmark.
//
// Every failure that crosses a package boundary is an [*Error] carrying a
// [Code]. The CLI prints [UserMessage]; the HTTP surface maps the code to a
// status and returns both as JSON.
//
// # Error Codes
//
// Annotation store codes mirror the outcomes callers must distinguish:
//   - EMPTY_SELECTION: creation attempted with no nodes
//   - UNKNOWN_ANNOTATION: an operation targeted a nonexistent id
//   - MALFORMED_PERSISTED_DATA: a persisted document could not be parsed
//
// The remaining codes follow the INVALID_* / NOT_FOUND / STORAGE / INTERNAL_*
// convention for input, lookup, backend and unexpected failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptySelection, "no nodes selected")
//	if errors.Is(err, errors.ErrCodeEmptySelection) {
//	    // Ask the user to pick nodes first
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "read document %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Annotation store errors
	ErrCodeEmptySelection    Code = "EMPTY_SELECTION"
	ErrCodeInvalidSelection  Code = "INVALID_SELECTION"
	ErrCodeUnknownAnnotation Code = "UNKNOWN_ANNOTATION"
	ErrCodeMalformedData     Code = "MALFORMED_PERSISTED_DATA"

	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPatternType Code = "INVALID_PATTERN_TYPE"
	ErrCodeInvalidColor       Code = "INVALID_COLOR"
	ErrCodeInvalidKey         Code = "INVALID_KEY"
	ErrCodeInvalidDiagram     Code = "INVALID_DIAGRAM"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStorage  Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether any *Error in the chain of err carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in the chain of err, or
// an empty Code if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of err without code prefixes. Messages of
// nested *Error causes are joined with ": "; other causes are left out, since
// they tend to carry paths and driver details.
//
//	errors.Wrap(errors.ErrCodeMalformedData, errors.New(errors.ErrCodeMalformedData, "parse document"), "load document %q", "flow")
//	// load document "flow": parse document
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	for cause := e.Cause; cause != nil; {
		var inner *Error
		if !errors.As(cause, &inner) {
			break
		}
		if inner.Message != "" {
			msg += ": " + inner.Message
		}
		cause = inner.Cause
	}
	return msg
}
