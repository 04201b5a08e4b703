package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable failure reason returned to API clients.
type Code string

const (
	CodeInvalidToken           Code = "invalid_token"
	CodeExpiredToken           Code = "expired_token"
	CodeAlreadySubmitted       Code = "already_submitted"
	CodeLocationMismatch       Code = "location_mismatch"
	CodeSubmissionWindowClosed Code = "submission_window_closed"
	CodeCampusAccessDenied     Code = "campus_access_denied"
	CodeValidationError        Code = "validation_error"
	CodeNotFound               Code = "not_found"
	CodeUnauthorized           Code = "unauthorized"
	CodeForbidden              Code = "forbidden"
	CodeConflict               Code = "conflict"
)

// Error is a client-visible failure. Code is part of the API contract and
// never changes meaning between releases; Message is free-form.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from anywhere in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Status maps an error to its HTTP status. Anything without a known code is
// treated as an internal failure.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeInvalidToken, CodeValidationError:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeCampusAccessDenied, CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadySubmitted, CodeConflict:
		return http.StatusConflict
	case CodeExpiredToken:
		return http.StatusGone
	case CodeLocationMismatch, CodeSubmissionWindowClosed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
