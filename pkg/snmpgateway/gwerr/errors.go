// Package gwerr classifies gateway failures so that every layer can report
// them consistently and the HTTP layer can map them to status codes.
package gwerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure class of a gateway error.
type Kind int

const (
	// Unknown is returned by KindOf for errors that carry no classification.
	Unknown Kind = iota
	// Validation: malformed or incomplete request.
	Validation
	// Resolution: symbolic OID not present in the symbol table.
	Resolution
	// NotFound: dummy mode OID outside the simulated address space.
	NotFound
	// Transport: agent unreachable or timed out after retries.
	Transport
	// Protocol: agent answered with an explicit error status.
	Protocol
	// Persistence: sink failure. Logged only, never returned to a caller.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "ValidationError"
	case Resolution:
		return "ResolutionError"
	case NotFound:
		return "NotFoundError"
	case Transport:
		return "TransportError"
	case Protocol:
		return "ProtocolError"
	case Persistence:
		return "PersistenceError"
	default:
		return "Error"
	}
}

// HTTPStatus returns the response status code for errors of kind k.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified gateway error. Message is safe to show to callers;
// Err, when set, is the underlying cause.
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

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind k with a formatted message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind k with a short message prefix.
func Wrap(k Kind, err error, message string) *Error {
	return &Error{Kind: k, Message: message, Err: err}
}

// Validationf is shorthand for New(Validation, ...).
func Validationf(format string, args ...any) *Error {
	return New(Validation, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return Unknown
}

// Is reports whether err is classified as kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
