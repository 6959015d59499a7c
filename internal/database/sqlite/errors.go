package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/koustreak/talenttrack/internal/errs"
)

var errNotOpen = errs.New(errs.ErrKindConnection, "sqlite database is not open")

// mapConnectError classifies a failure to open or ping the database file
func mapConnectError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch primaryCode(sqliteErr) {
		case sqlite3.SQLITE_CANTOPEN:
			return errs.Wrap(errs.ErrKindHostNotFound, "cannot open database file", err)
		case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY:
			return errs.Wrap(errs.ErrKindAccessDenied, "database file not accessible", err)
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return errs.Wrap(errs.ErrKindInvalidParameters, "file is not a usable database", err)
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errs.Wrap(errs.ErrKindConnectionRefused, "database is locked", err)
		}
		return errs.Wrap(errs.ErrKindConnection, sqliteErr.Error(), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrKindConnection, err.Error(), err)
	}
	return errs.Wrap(errs.ErrKindUnknownConnection, err.Error(), err)
}

// mapError converts a SQLite engine error into an *errs.Error
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "statement cancelled", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}

	if errors.Is(err, sql.ErrTxDone) {
		return errs.Wrap(errs.ErrKindTransaction, "transaction already closed", err)
	}

	if errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnection, "connection closed", err)
	}

	return errs.Wrap(errs.ErrKindQuery, err.Error(), err)
}

// primaryCode strips the extended result code bits.
func primaryCode(e *sqlite.Error) int {
	return e.Code() & 0xff
}
