package database

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/koustreak/talenttrack/internal/errs"
)

// ClassifyConnectError maps a network-level failure onto the connection
// taxonomy. Drivers call it for errors that carry no protocol error code.
// The default arm is ErrKindUnknownConnection.
func ClassifyConnectError(err error) errs.ErrKind {
	if err == nil {
		return errs.ErrKindUnknown
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errs.ErrKindHostNotFound
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return errs.ErrKindConnectionRefused
	}

	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return errs.ErrKindInvalidParameters
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errs.ErrKindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errs.ErrKindConnection
	}

	return errs.ErrKindUnknownConnection
}

// connectMessage is the caller-facing message for each connection kind.
func connectMessage(kind errs.ErrKind, cause error) string {
	switch kind {
	case errs.ErrKindConnection:
		var e *errs.Error
		if errors.As(cause, &e) && e.Message != "" {
			return "failed to connect to database: " + e.Message
		}
		return "failed to connect to database: " + cause.Error()
	case errs.ErrKindConnectionRefused:
		return "database connection refused, check that the database server is running"
	case errs.ErrKindHostNotFound:
		return "database host not found, check the database configuration"
	case errs.ErrKindAccessDenied:
		return "database access denied, check the credentials"
	case errs.ErrKindInvalidParameters:
		return "invalid database connection parameters"
	default:
		return "unknown database connection error"
	}
}

// classifyAuthError re-wraps a driver failure from Open into the connection
// taxonomy. Kinds outside the connection family become ErrKindUnknownConnection.
func classifyAuthError(err error) *errs.Error {
	kind := errs.KindOf(err)
	if kind == errs.ErrKindUnknown {
		kind = ClassifyConnectError(err)
	}
	if !kind.IsConnectionKind() {
		kind = errs.ErrKindUnknownConnection
	}
	return errs.Wrap(kind, connectMessage(kind, err), err)
}
