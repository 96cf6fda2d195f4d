// Package dErrors provides coded domain errors for the identity SDK.
//
// Services and collaborators return these so callers can branch on the error
// code without string matching. Infrastructure facts (not found, already
// resolved) live in pkg/platform/sentinel; this package covers the SDK's
// public error taxonomy.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidData indicates a malformed server response or callback,
	// e.g. an account payload that does not decode or a redirect URL with
	// no token parameter.
	CodeInvalidData Code = "invalid_data"

	// CodeCanceled indicates the user aborted the authentication flow.
	CodeCanceled Code = "authentication_canceled"

	// CodeStartFailed indicates the external user agent could not be opened.
	CodeStartFailed Code = "authentication_start_failed"

	// CodeUnauthorized indicates the identity provider rejected the session
	// token (HTTP 401/403). Distinct from transport failures: it is the
	// trigger for forced logout.
	CodeUnauthorized Code = "unauthorized"

	// CodeTransport wraps opaque network-level failures passed through from
	// the account service.
	CodeTransport Code = "transport"

	// CodeBadRequest indicates invalid caller input.
	CodeBadRequest Code = "bad_request"

	// CodeInternal indicates an unexpected internal failure.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a machine-readable code and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
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

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message, preserving the cause for
// errors.Is/As chains. Returns nil if err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.cause
		if err == nil {
			break
		}
		domainErr = nil
	}
	return false
}

// CodeOf returns the outermost domain error code in err's chain, or
// CodeInternal if err carries no code.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
