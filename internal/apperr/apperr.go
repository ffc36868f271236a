// Package apperr defines the error taxonomy surfaced by the API: validation
// (400), conflict (409), not found (404), auth (401). Anything outside the
// taxonomy is treated as an internal failure and reported as 500 without
// leaking detail to the caller.
package apperr

import (
	"errors"
	"net/http"
)

// Error carries an HTTP status alongside a caller-safe message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Conflict reports a duplicate unique field.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Auth reports bad credentials or an invalid, expired, stale, or missing
// token.
func Auth(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Internal reports an unexpected server-side failure.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// StatusOf extracts the HTTP status for err, defaulting to 500 for errors
// outside the taxonomy.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// IsStatus reports whether err belongs to the taxonomy with the given status.
func IsStatus(err error, status int) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == status
}
