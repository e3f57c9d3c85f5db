package errors

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every error produced by the service wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrBlocked           = errors.New("blocked")
	ErrPersistence       = errors.New("persistence failure")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error is a domain failure carrying a stable kind and a human-readable message.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id string) error {
	return newError(ErrNotFound, "%s %q not found", entity, id)
}

func InvalidTransition(format string, args ...any) error {
	return newError(ErrInvalidTransition, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

func Blocked(format string, args ...any) error {
	return newError(ErrBlocked, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func InvalidInput(format string, args ...any) error {
	return newError(ErrInvalidInput, format, args...)
}

// Persistence wraps a data-store failure. Errors that already carry a domain
// kind pass through untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{
		Kind:    ErrPersistence,
		Message: fmt.Sprintf("%s: %v", op, err),
		cause:   err,
	}
}

// Kind returns the stable tag for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "internal"
	}
}
