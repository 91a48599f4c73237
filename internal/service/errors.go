package service

import (
	"errors"
	"net/http"
)

// Error is a request-level failure that carries the HTTP status it maps to.
// Anything that is not an *Error is treated as an internal error by the
// handler layer.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) *Error   { return &Error{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Status: http.StatusForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Status: http.StatusNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Status: http.StatusConflict, Message: msg} }

// ErrInvalidCredentials is returned by Login for an unknown login id or a
// wrong password. The two cases are indistinguishable to the caller.
var ErrInvalidCredentials = Unauthorized("Invalid credentials")

// StatusOf returns the HTTP status for err, or 500 when err carries none.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
