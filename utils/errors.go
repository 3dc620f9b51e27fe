package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the response envelope. The first three digits mirror the HTTP status.
const (
	CodeInvalidIdentifier = 40001
	CodeInvalidPayload    = 40002
	CodeUnauthorized      = 40101
	CodeNotFound          = 40401
	CodeRouteNotFound     = 40400
	CodeValidationFailed  = 42201
	CodeRateLimited       = 42901
	CodeStorageFailure    = 50001
	CodeInternal          = 50000
)

// AppError is the single structured error kind raised by controllers and repositories.
// It is rendered into the response envelope by RenderError.
type AppError struct {
	Status  int
	Code    int
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// InvalidIdentifier reports a path id that is not a positive integer.
func InvalidIdentifier(raw string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidIdentifier,
		Message: fmt.Sprintf("invalid post id %q", raw),
	}
}

// InvalidPayload reports a request body that could not be decoded.
func InvalidPayload(err error) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidPayload,
		Message: "invalid request payload",
		Err:     err,
	}
}

// ValidationFailed carries every field error found in one request body.
func ValidationFailed(details map[string]string) *AppError {
	return &AppError{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: "validation failed",
		Details: details,
	}
}

// NotFound reports a missing resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// StorageFailure wraps any unexpected persistence error.
func StorageFailure(op string, err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeStorageFailure,
		Message: "failed to " + op,
		Err:     err,
	}
}

// AsAppError unwraps err into an AppError, falling back to a generic 500.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// IsNotFound reports whether err is an AppError with a 404 status.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Status == http.StatusNotFound
}
