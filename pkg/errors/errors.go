package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound    = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict    = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation  = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal    = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrSolveActive = New("SOLVE_IN_PROGRESS", http.StatusConflict, "a solve is already running for this school")

	// ErrDataIntegrity is fatal: an entity holds two overlapping commitments,
	// which upstream validation guarantees can never happen.
	ErrDataIntegrity = New("DATA_INTEGRITY", http.StatusInternalServerError, "conflicting commitments found at the same time of week")

	// ErrInfeasible reports that the scheduling constraints cannot all be met.
	ErrInfeasible = New("INFEASIBLE_PROBLEM", http.StatusUnprocessableEntity, "timetabling constraints cannot be simultaneously satisfied")

	// ErrInsufficientData reports missing slots, breaks or year group coverage
	// detected before the model is built.
	ErrInsufficientData = New("INSUFFICIENT_INPUT_DATA", http.StatusUnprocessableEntity, "not enough data to build a timetabling problem")

	// ErrSolverEngine reports an engine failure or timeout; callers may retry.
	ErrSolverEngine = New("SOLVER_ENGINE_ERROR", http.StatusServiceUnavailable, "the solving engine failed or timed out")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the given error code.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
