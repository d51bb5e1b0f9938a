package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by every service.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUpstream     = "UPSTREAM_UNAVAILABLE"
	CodePeriodClosed = "PERIOD_CLOSED"
	CodeInternal     = "INTERNAL"
)

var (
	// ErrValidation matches any AppError carrying CodeValidation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any AppError carrying CodeNotFound.
	ErrNotFound = errors.New("resource not found")
	// ErrUpstreamUnavailable matches any AppError carrying CodeUpstream.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrPeriodClosed matches any AppError carrying CodePeriodClosed.
	ErrPeriodClosed = errors.New("period closed")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is maps error codes onto the package sentinels.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUpstreamUnavailable:
		return e.Code == CodeUpstream
	case ErrPeriodClosed:
		return e.Code == CodePeriodClosed
	}
	return false
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// FieldErrors maps request field names to a human readable problem.
type FieldErrors map[string]string

// Validation builds a VALIDATION_ERROR for a single field.
func Validation(field, message string) *AppError {
	return ValidationFields(FieldErrors{field: message})
}

// ValidationFields builds a VALIDATION_ERROR carrying every offending field.
func ValidationFields(fields FieldErrors) *AppError {
	msg := "invalid request"
	if len(fields) == 1 {
		for field, problem := range fields {
			msg = fmt.Sprintf("%s: %s", field, problem)
		}
	}
	return &AppError{Code: CodeValidation, Message: msg, HTTPStatus: http.StatusBadRequest, Details: fields}
}

// NotFound builds a NOT_FOUND error for the named resource.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"key": key},
	}
}

// Upstream wraps a persistence or collaborator failure as retryable.
func Upstream(err error) *AppError {
	return &AppError{Code: CodeUpstream, Message: "upstream unavailable", HTTPStatus: http.StatusServiceUnavailable, Err: err}
}

// PeriodClosed reports a write into a month that is no longer editable.
func PeriodClosed(message string) *AppError {
	return &AppError{Code: CodePeriodClosed, Message: message, HTTPStatus: http.StatusConflict}
}
