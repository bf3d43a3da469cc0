// Package apperr carries business errors together with the HTTP status code
// the API boundary should answer with.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, format, args...)
}

// Unprocessable is a business rule violation: invalid transition,
// insufficient stock and the like.
func Unprocessable(format string, args ...interface{}) *Error {
	return New(http.StatusUnprocessableEntity, format, args...)
}

// StatusCode returns the code carried by err, 500 for anything else.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message of a domain error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsDomain reports whether err is a client-side (4xx) domain error.
func IsDomain(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
