// Package errors provides coded domain errors for the tagshelf catalog.
//
// Usage:
//
//	// In the catalog - return typed errors
//	if _, exists := schema[key]; exists {
//	    return "", errors.DuplicateCategoryf("category %q already exists", key)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrStorageUnavailable) {
//	    // fall back to the next backend
//	}
//
//	// Or switch on the code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeValidation:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeStorageIO          Code = "STORAGE_IO"
	CodeDuplicateCategory  Code = "DUPLICATE_CATEGORY"
	CodeValidation         Code = "VALIDATION"
	CodeNotFound           Code = "NOT_FOUND"
	CodePartialFailure     Code = "PARTIAL_FAILURE"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateCategory:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable"}
	ErrStorageIO          = &Error{Code: CodeStorageIO, Message: "storage i/o error"}
	ErrDuplicateCategory  = &Error{Code: CodeDuplicateCategory, Message: "duplicate category"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrPartialFailure     = &Error{Code: CodePartialFailure, Message: "partial failure"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Progress reports how a multi-item operation went. It is attached as
// details to partial failure errors.
type Progress struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// StorageUnavailable creates a storage unavailable error for a backend.
func StorageUnavailable(backend string, err error) *Error {
	return &Error{
		Code:    CodeStorageUnavailable,
		Message: fmt.Sprintf("%s storage unavailable", backend),
		cause:   err,
	}
}

// StorageIO creates an i/o error for a single storage operation.
func StorageIO(op, collection string, err error) *Error {
	return &Error{
		Code:    CodeStorageIO,
		Message: fmt.Sprintf("storage %s on %q failed", op, collection),
		cause:   err,
	}
}

// DuplicateCategoryf creates a duplicate category error with formatted message.
func DuplicateCategoryf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateCategory, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// PartialFailure reports a multi-item operation where some steps failed.
// The cause is the first failure encountered.
func PartialFailure(op string, succeeded, failed int, cause error) *Error {
	return &Error{
		Code:    CodePartialFailure,
		Message: fmt.Sprintf("%s: %d succeeded, %d failed", op, succeeded, failed),
		Details: Progress{Succeeded: succeeded, Failed: failed},
		cause:   cause,
	}
}

// ProgressOf extracts succeeded/failed counts from a partial failure error.
func ProgressOf(err error) (Progress, bool) {
	var domainErr *Error
	if !errors.As(err, &domainErr) || domainErr.Code != CodePartialFailure {
		return Progress{}, false
	}
	p, ok := domainErr.Details.(Progress)
	return p, ok
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
