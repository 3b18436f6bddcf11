package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a ledger failure for transport mapping.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindAuthorization     ErrorKind = "AUTHORIZATION"
	KindEditWindowExpired ErrorKind = "EDIT_WINDOW_EXPIRED"
	KindStorage           ErrorKind = "STORAGE"
)

// Error is a structured ledger failure. Kind drives the HTTP status; Err
// carries the underlying cause for logs, never for responses.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError covers both truly absent records and records owned by
// another user when resolving by customer, so responses never leak the
// existence of other users' data.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NewEditWindowExpiredError(message string) *Error {
	return &Error{Kind: KindEditWindowExpired, Message: message}
}

func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting unknown errors to storage.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindStorage
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindEditWindowExpired:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show callers. Storage failures
// are masked with a generic message.
func PublicMessage(err error) string {
	var le *Error
	if errors.As(err, &le) && le.Kind != KindStorage {
		return le.Message
	}
	return "Server error"
}
