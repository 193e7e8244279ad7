package domain

import (
	"errors"
	"fmt"
)

// Kind is the business error category surfaced to callers.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindRateLimited       Kind = "rate_limited"
)

// Error is a business-rule failure. Anything that is not an *Error is an
// infrastructure failure.
type Error struct {
	Kind    Kind
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

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrRateLimited       = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...any) error {
	return &Error{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports an illegal status change from -> to.
func InvalidTransition(from, to ShipmentStatus) error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
	}
}

// KindOf returns the kind of a business error, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
