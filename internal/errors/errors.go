// Package errors defines coded errors for all strata failure modes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code represents a stable error code for a failure mode
type Code string

const (
	// ParseError indicates malformed source in a single file (non-fatal)
	ParseError Code = "PARSE_ERROR"
	// ResolutionAmbiguous indicates a reference with two or more equally valid candidates
	ResolutionAmbiguous Code = "RESOLUTION_AMBIGUOUS"
	// StoreIntegrity indicates a write batch that would create a dangling edge
	StoreIntegrity Code = "STORE_INTEGRITY"
	// ChangeDetection indicates a file unreadable after the retry budget
	ChangeDetection Code = "CHANGE_DETECTION"
	// SizeGuard indicates an algorithm scope exceeded its safe node-count bound
	SizeGuard Code = "SIZE_GUARD"
	// SymbolNotFound indicates a symbol lookup with no match
	SymbolNotFound Code = "SYMBOL_NOT_FOUND"
	// SymbolAmbiguous indicates a symbol lookup with multiple matches
	SymbolAmbiguous Code = "SYMBOL_AMBIGUOUS"
	// FileNotFound indicates a file path not present in the index
	FileNotFound Code = "FILE_NOT_FOUND"
	// MetricNotComputed indicates a metric that has not been computed yet
	MetricNotComputed Code = "METRIC_NOT_COMPUTED"
	// IndexMissing indicates no index database exists for the project
	IndexMissing Code = "INDEX_MISSING"
	// Internal indicates an unexpected error
	Internal Code = "INTERNAL_ERROR"
)

// Error is a coded error with an optional underlying cause
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a coded error
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around an underlying cause
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the code from an error chain, or Internal if none
func CodeOf(err error) Code {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return Internal
}

// HasCode reports whether the error chain carries the given code
func HasCode(err error, code Code) bool {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}
