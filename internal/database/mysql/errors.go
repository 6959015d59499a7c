package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errTooManyConnections = 1040
	errDBAccessDenied     = 1044
	errAccessDenied       = 1045
	errUnknownDatabase    = 1049
	errServerShutdown     = 1053
	errConnRefused        = 2003
)

var errNotOpen = errs.New(errs.ErrKindConnection, "mysql pool is not open")

// mapConnectError classifies a failure to open or ping the pool
func mapConnectError(err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := errs.ErrKindConnection
		switch mysqlErr.Number {
		case errAccessDenied, errDBAccessDenied:
			kind = errs.ErrKindAccessDenied
		case errUnknownDatabase:
			kind = errs.ErrKindInvalidParameters
		case errConnRefused, errServerShutdown:
			kind = errs.ErrKindConnectionRefused
		case errTooManyConnections:
			kind = errs.ErrKindConnection
		}
		return errs.Wrap(kind, mysqlErr.Message, err)
	}

	return errs.Wrap(database.ClassifyConnectError(err), err.Error(), err)
}

// mapError converts a MySQL driver error into an *errs.Error
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

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnection, "connection lost", err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if mysqlErr.Number == errServerShutdown {
			return errs.Wrap(errs.ErrKindConnection, mysqlErr.Message, err)
		}
		return errs.Wrap(errs.ErrKindQuery, mysqlErr.Message, err)
	}

	if kind := database.ClassifyConnectError(err); kind != errs.ErrKindUnknownConnection {
		return errs.Wrap(kind, err.Error(), err)
	}

	return errs.Wrap(errs.ErrKindQuery, err.Error(), err)
}
