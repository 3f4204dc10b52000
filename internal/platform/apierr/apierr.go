package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the failure modes the counting core can surface.
const (
	CodeNotFound           = "not_found"
	CodeInvalidCombination = "invalid_combination"
	CodeIntegrityViolation = "integrity_violation"
	CodeAggregateDrift     = "aggregate_drift"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// InvalidCombination marks a counting request that would require a full
// question-table scan. It is refused, never degraded.
func InvalidCombination(format string, args ...interface{}) *Error {
	return New(http.StatusUnprocessableEntity, CodeInvalidCombination, fmt.Errorf(format, args...))
}

func IntegrityViolation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeIntegrityViolation, fmt.Errorf(format, args...))
}

// AggregateDrift wraps a trigger failure. The surrounding transaction is
// rolled back, so the source table and the trees stay in step.
func AggregateDrift(err error) *Error {
	return New(http.StatusInternalServerError, CodeAggregateDrift, err)
}

// Code extracts the apierr code from an error chain, or CodeInternal.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return CodeInternal
}

// Status extracts the HTTP status from an error chain, or 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func IsCode(err error, code string) bool {
	return Code(err) == code
}
