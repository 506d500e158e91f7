// Package apperr classifies domain errors so transport adapters can map them
// to status codes without knowing every sentinel in the system.
package apperr

import (
	"errors"
	"fmt"
)

// Kind describes the category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified error. Its message is safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string) error      { return newError(KindInvalid, message) }
func NotFound(message string) error     { return newError(KindNotFound, message) }
func Conflict(message string) error     { return newError(KindConflict, message) }
func Unauthorized(message string) error { return newError(KindUnauthorized, message) }
func Forbidden(message string) error    { return newError(KindForbidden, message) }
func Unavailable(message string) error  { return newError(KindUnavailable, message) }

// Invalidf builds a validation error with a formatted message.
func Invalidf(format string, args ...any) error {
	return newError(KindInvalid, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Message returns the client-safe message of the first classified error in
// err's chain, or an empty string when the chain carries none.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
