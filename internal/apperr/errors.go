// Package apperr defines the typed errors services return to the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	TypeValidation   ErrorType = "validation_error"
	TypeNotFound     ErrorType = "not_found"
	TypeConflict     ErrorType = "conflict"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeForbidden    ErrorType = "forbidden"
	TypeInternal     ErrorType = "internal_error"
)

type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newError(t ErrorType, code int, message string, details []string) *AppError {
	e := &AppError{Type: t, Message: message, Code: code}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func Validation(message string, details ...string) *AppError {
	return newError(TypeValidation, http.StatusBadRequest, message, details)
}

func NotFound(message string, details ...string) *AppError {
	return newError(TypeNotFound, http.StatusNotFound, message, details)
}

func Conflict(message string, details ...string) *AppError {
	return newError(TypeConflict, http.StatusConflict, message, details)
}

func Unauthorized(message string, details ...string) *AppError {
	return newError(TypeUnauthorized, http.StatusUnauthorized, message, details)
}

func Forbidden(message string, details ...string) *AppError {
	return newError(TypeForbidden, http.StatusForbidden, message, details)
}

func Internal(message string, details ...string) *AppError {
	return newError(TypeInternal, http.StatusInternalServerError, message, details)
}

// As unwraps err to an *AppError if one is in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// HTTPStatus maps any error to a response code; untyped errors are 500.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
