package domain

import (
	"errors"
	"fmt"
)

// Repository errors. Stores return these (optionally wrapped) and the
// services translate them into kinded errors.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrBranchNotFound = errors.New("branch not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already in use")
	ErrStateUnchanged = errors.New("active state unchanged")
)

// Credential errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
	ErrInactiveUser = errors.New("user is deactivated")
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindUnauthenticated   Kind = "unauthenticated"
	KindPrincipalNotFound Kind = "principal_not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindNotFoundEmpty     Kind = "not_found_empty"
	KindConflict          Kind = "conflict"
	KindInvalidState      Kind = "invalid_state"
	KindUnexpected        Kind = "unexpected"
)

// Error is an error with a kind and a caller-safe message.
// Err holds the underlying cause, which must never be shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a kinded error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a kinded error carrying an underlying cause.
func WrapError(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation returns a validation error.
func Validation(message string) *Error { return NewError(KindValidation, message) }

// NotFound returns a not found error.
func NotFound(message string) *Error { return NewError(KindNotFound, message) }

// NotFoundEmpty returns the error reported for an empty listing.
func NotFoundEmpty(message string) *Error { return NewError(KindNotFoundEmpty, message) }

// Conflict returns a uniqueness violation error.
func Conflict(message string) *Error { return NewError(KindConflict, message) }

// Forbidden returns a role or scope denial.
func Forbidden(message string) *Error { return NewError(KindForbidden, message) }

// InvalidState returns a redundant state transition error.
func InvalidState(message string) *Error { return NewError(KindInvalidState, message) }

// Unexpected wraps a storage or credential service failure.
func Unexpected(err error, message string) *Error { return WrapError(err, KindUnexpected, message) }

// KindOf returns the kind of err. Errors without a kind are unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
