// Package apperr defines the error taxonomy surfaced by the registry API.
//
// Errors created here wrap a sentinel per category so callers can branch with
// errors.Is, and carry the HTTP status the handler layer maps them to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Category sentinels.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnprocessable = errors.New("unprocessable")
)

// Error is a status-coded error returned to API callers.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string { return e.Message }

// Unwrap lets errors.Is match the category sentinel.
func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, status int, format string, args ...any) *Error {
	return &Error{
		Status:  status,
		Message: fmt.Sprintf(format, args...),
		kind:    kind,
	}
}

// BadRequest marks malformed or conflicting input.
func BadRequest(format string, args ...any) *Error {
	return newError(ErrBadRequest, http.StatusBadRequest, format, args...)
}

// Unauthorized marks missing or invalid credentials.
func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, http.StatusUnauthorized, format, args...)
}

// NotFound marks a missing resource. Also used for resources the caller may
// not see, so a denied lookup is indistinguishable from a missing one.
func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, http.StatusNotFound, format, args...)
}

// Conflict marks duplicate creation.
func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, http.StatusConflict, format, args...)
}

// Unprocessable marks well-formed but semantically invalid input.
func Unprocessable(format string, args ...any) *Error {
	return newError(ErrUnprocessable, http.StatusUnprocessableEntity, format, args...)
}

func IsBadRequest(err error) bool    { return errors.Is(err, ErrBadRequest) }
func IsUnauthorized(err error) bool  { return errors.Is(err, ErrUnauthorized) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool      { return errors.Is(err, ErrConflict) }
func IsUnprocessable(err error) bool { return errors.Is(err, ErrUnprocessable) }

// Status returns the HTTP status for err, defaulting to 500 for errors that
// did not originate here.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
