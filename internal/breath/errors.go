package breath

import (
	"errors"
	"fmt"
)

// Error is returned by every operation in this package.
//
// Errors are local to one simulation call. There is nothing to retry: a
// failure is either a caller configuration error or a boundary alignment error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field names the offending parameter (for configuration errors).
	Field string

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes simulation errors.
type ErrorCode string

const (
	// ErrCodeInvalidConfiguration indicates an out-of-range or non-positive
	// parameter, or a time step too coarse for the phase boundaries.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// ErrCodeGridAlignment indicates a phase could not find its initial
	// condition at the exact prior boundary, or a row was written twice.
	ErrCodeGridAlignment ErrorCode = "GRID_ALIGNMENT"

	// ErrCodeReplicationArgument indicates a repeat count below one or one
	// that tiles past MaxSamples rows.
	ErrCodeReplicationArgument ErrorCode = "REPLICATION_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidConfiguration returns true if err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsInvalidConfiguration(err error) bool {
	return hasCode(err, ErrCodeInvalidConfiguration)
}

// IsGridAlignment returns true if err is a grid alignment error.
func IsGridAlignment(err error) bool {
	return hasCode(err, ErrCodeGridAlignment)
}

// IsReplicationArgument returns true if err is a replication argument error.
func IsReplicationArgument(err error) bool {
	return hasCode(err, ErrCodeReplicationArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func newInvalidConfiguration(field, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfiguration,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewGridAlignmentError creates an Error for a phase boundary that does not
// land on the expected sample.
func NewGridAlignmentError(phase Phase, index int, message string) *Error {
	return &Error{
		Code:    ErrCodeGridAlignment,
		Message: message,
		Details: map[string]string{
			"phase": phase.String(),
			"index": fmt.Sprintf("%d", index),
		},
	}
}

// NewReplicationError creates an Error for an invalid repeat count.
func NewReplicationError(n int) *Error {
	return &Error{
		Code:    ErrCodeReplicationArgument,
		Message: fmt.Sprintf("breath count must be at least 1, got %d", n),
		Details: map[string]string{
			"breaths": fmt.Sprintf("%d", n),
		},
	}
}

// NewReplicationLimitError creates an Error for a repeat count whose tiled
// trace would exceed MaxSamples rows.
func NewReplicationLimitError(n, period int) *Error {
	return &Error{
		Code:    ErrCodeReplicationArgument,
		Message: fmt.Sprintf("%d breaths of %d samples exceed the %d row limit", n, period, MaxSamples),
		Details: map[string]string{
			"breaths": fmt.Sprintf("%d", n),
			"period":  fmt.Sprintf("%d", period),
		},
	}
}
