package domain

import "errors"

// Domain errors - used across all layers. Comparable with errors.Is so
// services and tests can branch on identity the way the rest of the
// call stack does, without caring about the message text.
var (
	// ErrNotFound indicates the requested business does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates the caller supplied bad input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates an upsert integrity violation. Should not
	// occur under the batch writer's invariants; surfaced only as a
	// defensive mapping.
	ErrConflict = errors.New("conflict")

	// ErrNotImplemented indicates a requested capability (mode=ai) has
	// not been built yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnauthorized indicates a missing or invalid operator token on
	// the ingest endpoint.
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind discriminates the error taxonomy of spec §7 for the HTTP mapper.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotImplemented Kind = "not_implemented"
	KindUnauthorized   Kind = "unauthorized"
	KindTransient      Kind = "transient"
	KindUnexpected     Kind = "unexpected"
)

// OperationalError is a client-facing error tagged with a Kind and an
// Operational flag. The HTTP mapper uses the flag to decide whether the
// message is safe to show a caller; operational errors surface their
// Message, non-operational ones collapse to "Internal server error".
type OperationalError struct {
	Kind       Kind
	Message    string
	Operational bool
	cause      error
}

func (e *OperationalError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *OperationalError) Unwrap() error {
	return e.cause
}

// NewOperationalError builds a client-visible, operational error.
func NewOperationalError(kind Kind, message string, cause error) *OperationalError {
	return &OperationalError{Kind: kind, Message: message, Operational: true, cause: cause}
}

// Wrap tags an arbitrary error as non-operational: its message is logged
// but never returned to a caller.
func Wrap(cause error) *OperationalError {
	return &OperationalError{Kind: KindUnexpected, Message: "Internal server error", Operational: false, cause: cause}
}
