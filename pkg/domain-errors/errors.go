// Package dErrors provides the coded error taxonomy shared by every layer.
// Services wrap store sentinels and invariant violations into coded errors;
// the HTTP layer maps codes onto status codes. Codes are stable strings so
// callers can branch on them without string-matching messages.
package dErrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	// CodeValidation: malformed or out-of-range input (rating outside [1,5],
	// voteValue outside [1,10], endTime before startTime).
	CodeValidation Code = "validation"
	// CodeConflict: a uniqueness invariant rejected the write (duplicate
	// email, duplicate attendance pair, duplicate ballot triple).
	CodeConflict Code = "conflict"
	// CodeForbidden: the caller's role or activity flag does not permit the
	// action.
	CodeForbidden Code = "forbidden"
	// CodeNotFound: a referenced entity is absent.
	CodeNotFound Code = "not_found"
	// CodeInvalidState: the action is incompatible with the entity's current
	// lifecycle state (check-in without an attendance row, casting into a
	// closed round).
	CodeInvalidState Code = "invalid_state"
	// CodeBadRequest: the request itself could not be understood (transport
	// layer use).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized: missing or unverifiable caller identity (transport
	// layer use).
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal: unexpected failure; safe generic message for callers.
	CodeInternal Code = "internal"
)

// Error carries a code, a user-renderable message, an optional offending
// field name, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/As for logging; the message is what callers see.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithField annotates the error with the offending field name.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on a
// single code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transport layers never leak raw failures.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
