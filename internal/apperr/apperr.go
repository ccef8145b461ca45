// Package apperr defines the error kinds shared across the search, updater,
// and dispatcher services, independent of how each service transports them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport-layer mapping (HTTP status, log
// level, retry policy). It is deliberately small and closed.
type Kind int

const (
	// Unknown is the zero value; KindOf returns it only for a nil error.
	Unknown Kind = iota
	// NotFound: catalog returned nothing, or product absent from the index
	// when the operation required its presence.
	NotFound
	// Unavailable: catalog unreachable or snapshot file missing.
	Unavailable
	// Conflict: snapshot pair torn or cardinality invariant violated at load.
	Conflict
	// Internal: embedding failure, vector-index backend failure,
	// serialization failure, or any other unexpected defect.
	Internal
	// BadRequest: malformed query parameter (missing query, non-numeric
	// threshold, non-numeric id, ...).
	BadRequest
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Unavailable:
		return "unavailable"
	case Conflict:
		return "conflict"
	case Internal:
		return "internal"
	case BadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind. Test for a kind with Is
// (e.g. apperr.Is(err, apperr.NotFound)) rather than comparing *Error
// pointers.
type Error struct {
	Kind Kind
	Op   string // short, e.g. "indexcore.Add", "catalog.Get"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given kind and op, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether the first *Error in err's chain carries the given Kind.
// Kinds of *Error values nested further down the chain are not consulted.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or Internal if err does not carry one.
// Callers at a transport boundary use this to pick a status code/response
// shape without needing to know whether err is an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if err == nil {
		return Unknown
	}
	return Internal
}
