package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure classes
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeState         ErrorType = "state"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeUnrecoverable ErrorType = "unrecoverable"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewStateError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeState,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

func NewDuplicateError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "DUPLICATE_ID",
		Message:    fmt.Sprintf("%s already exists", resource),
		Retryable:  false,
		StatusCode: 409,
	}
}

// NewVersionConflictError reports a concurrent modification detected by the
// versioned store. Expected is the version the store would have accepted,
// actual is the version the caller presented.
func NewVersionConflictError(expected, actual uint32) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "VERSION_CONFLICT",
		Message:    fmt.Sprintf("version conflict: expected %d, got %d", expected, actual),
		Retryable:  true,
		StatusCode: 409,
		Details: map[string]interface{}{
			"expected_version": expected,
			"actual_version":   actual,
		},
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// NewUnrecoverableError is returned when the retry budget for a command is
// exhausted without a successful commit.
func NewUnrecoverableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnrecoverable,
		Code:       "RETRIES_EXHAUSTED",
		Message:    message,
		Retryable:  false,
		StatusCode: 503,
	}
}

// Predefined common errors
var (
	ErrAuctionNotFound = NewNotFoundError("auction")
	ErrLotNotFound     = NewNotFoundError("lot")
	ErrVehicleNotFound = NewNotFoundError("vehicle")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsVersionConflict reports whether the error is a store version conflict.
func IsVersionConflict(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == "VERSION_CONFLICT"
	}
	return false
}

// ConflictVersions extracts the expected/actual versions from a version
// conflict error.
func ConflictVersions(err error) (expected, actual uint32, ok bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "VERSION_CONFLICT" {
		return 0, 0, false
	}
	e, eok := appErr.Details["expected_version"].(uint32)
	a, aok := appErr.Details["actual_version"].(uint32)
	return e, a, eok && aok
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
