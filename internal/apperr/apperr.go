// Package apperr is the error taxonomy every handler and repository
// speaks. Operations wrap backend failures into one of these kinds and
// log the cause; raw pgx errors never reach a response body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindAuth: bad credentials or missing/expired token.
	KindAuth Kind = iota
	// KindValidation: malformed input, caught before or during a write.
	KindValidation
	// KindConflict: duplicate registration or other uniqueness breach.
	KindConflict
	// KindPersistence: a write the backend rejected.
	KindPersistence
	// KindNotFound: referenced row missing.
	KindNotFound
	// KindPermission: the role gate denied the action.
	KindPermission
)

type Error struct {
	Kind    Kind
	Message string // user-facing
	Err     error  // diagnostic cause, logged, never serialized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors
// count as persistence failures; the safest user-facing story.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindPersistence
}

// MessageOf returns the user-facing message, falling back to a generic
// one for unclassified errors.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "operation failed"
}

// Status maps an error kind to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
