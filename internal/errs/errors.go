// Package errs provides the unified error type used across all of TalentTrack.
//
// Every subsystem (database, filestore, server, …) wraps its native errors
// into *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindConnectionRefused, "dial failed", netErr)
//
//	// In a handler, check error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// The database kinds form a closed taxonomy: every driver failure maps to
// exactly one of them, with ErrKindUnknownConnection as the default arm for
// connection failures nobody could classify.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota // not produced by this package

	// Connection family.
	ErrKindConnection        // generic failure to connect
	ErrKindConnectionRefused // server not accepting connections
	ErrKindHostNotFound      // DNS / host resolution failure
	ErrKindAccessDenied      // credentials rejected
	ErrKindInvalidParameters // malformed connection parameters
	ErrKindUnknownConnection // unclassified connection failure

	ErrKindSync        // schema synchronization failed
	ErrKindQuery       // statement execution failed
	ErrKindTransaction // unit of work failed inside a transaction

	ErrKindNotFound         // no rows, no object, no route
	ErrKindInvalidInput     // bad arguments from the caller
	ErrKindPermissionDenied // access control failure outside the database
	ErrKindTimeout          // context deadline / cancellation
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConnection:
		return "connection_error"
	case ErrKindConnectionRefused:
		return "connection_refused"
	case ErrKindHostNotFound:
		return "host_not_found"
	case ErrKindAccessDenied:
		return "access_denied"
	case ErrKindInvalidParameters:
		return "invalid_parameters"
	case ErrKindUnknownConnection:
		return "unknown_connection_error"
	case ErrKindSync:
		return "sync_error"
	case ErrKindQuery:
		return "query_error"
	case ErrKindTransaction:
		return "transaction_error"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// IsConnectionKind reports whether k belongs to the connection family.
func (k ErrKind) IsConnectionKind() bool {
	return k >= ErrKindConnection && k <= ErrKindUnknownConnection
}

// Error is the single error type returned by all TalentTrack subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConnectionFailure reports whether err is any of the connection kinds.
func IsConnectionFailure(err error) bool {
	return KindOf(err).IsConnectionKind()
}

// IsSyncFailed reports whether err came from schema synchronization.
func IsSyncFailed(err error) bool {
	return KindOf(err) == ErrKindSync
}

// IsQueryFailed reports whether err is a statement execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQuery
}

// IsTransactionFailed reports whether err is a failed unit of work.
func IsTransactionFailed(err error) bool {
	return KindOf(err) == ErrKindTransaction
}

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown route, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
