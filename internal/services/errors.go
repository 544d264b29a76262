package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// AppError is a domain error with an HTTP status code. Domain errors
// (validation, not-found, forbidden, conflict) travel unchanged to the
// caller; anything else is surfaced as a generic internal failure with
// the original cause logged, never leaked.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports malformed or out-of-range input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

// NewUnauthorizedError reports a failed credential check.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: message}
}

// NewForbiddenError reports a role or ownership check failure.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: message}
}

// NewNotFoundError reports a missing or foreign-owned record.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message}
}

// NewConflictError reports a uniqueness violation such as a duplicate
// username or email.
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}

// NewInternalError wraps an unexpected lower-level failure behind a
// generic message.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Err: err}
}

// WriteError renders err as a JSON error response. Unexpected errors are
// logged with their cause and answered with a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			log.Printf("[ERROR] %s: %v", appErr.Message, appErr.Err)
			SendErrorResponse(w, appErr.Message, appErr.Code, nil)
			return
		}
		SendErrorResponse(w, appErr.Message, appErr.Code, nil)
		return
	}

	log.Printf("[ERROR] Unexpected error: %v", err)
	SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
}
