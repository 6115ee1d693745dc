// Package domainerrors carries coded errors across the service boundary.
//
// Services return *Error values; the HTTP layer maps Code to a status with
// httputil.WriteError. Infrastructure facts (record missing, backend down)
// stay in pkg/platform/sentinel and are translated by services.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is the stable, client-visible error identifier.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthenticated   Code = "unauthenticated"
	CodeInvalidCredential Code = "invalid_credential"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeMissingIdentity   Code = "missing_identity"
	CodeUpstream          Code = "upstream_error"
	CodeInternal          Code = "internal_error"
)

// Error is a domain error with an optional field-level breakdown.
type Error struct {
	Code    Code
	Message string
	// Fields holds field -> message pairs for validation failures.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on code and message so tests can compare against a freshly
// constructed error with errors.Is / require.ErrorIs.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Validation builds a validation error carrying field-level messages.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// HasCode reports whether err (or anything it wraps) is an *Error with code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a shorthand for HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// As extracts the *Error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
