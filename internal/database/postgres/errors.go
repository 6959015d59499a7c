package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

// PostgreSQL SQLSTATE error codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrInvalidAuthorization = "28000"
	pgErrInvalidPassword      = "28P01"
	pgErrInvalidCatalogName   = "3D000"
	pgErrTooManyConnections   = "53300"
	pgErrCannotConnectNow     = "57P03"
)

var errNotOpen = errs.New(errs.ErrKindConnection, "postgres pool is not open")

// mapConnectError classifies a failure to create or ping the pool
func mapConnectError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindConnection
		switch {
		case pgErr.Code == pgErrInvalidAuthorization || pgErr.Code == pgErrInvalidPassword:
			kind = errs.ErrKindAccessDenied
		case pgErr.Code == pgErrInvalidCatalogName:
			kind = errs.ErrKindInvalidParameters
		case pgErr.Code == pgErrCannotConnectNow:
			kind = errs.ErrKindConnectionRefused
		case pgErr.Code == pgErrTooManyConnections, sqlstateClass(pgErr.Code) == "08":
			kind = errs.ErrKindConnection
		}
		return errs.Wrap(kind, pgErr.Message, err)
	}

	return errs.Wrap(database.ClassifyConnectError(err), err.Error(), err)
}

// mapError converts a pgx statement error into an *errs.Error
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "statement cancelled", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}

	if errors.Is(err, pgx.ErrTxClosed) {
		return errs.Wrap(errs.ErrKindTransaction, "transaction already closed", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sqlstateClass(pgErr.Code) == "08" {
			return errs.Wrap(errs.ErrKindConnection, pgErr.Message, err)
		}
		return errs.Wrap(errs.ErrKindQuery, pgErr.Message, err)
	}

	// Network failures surface as connection kinds so the manager re-authenticates.
	if kind := database.ClassifyConnectError(err); kind != errs.ErrKindUnknownConnection {
		return errs.Wrap(kind, err.Error(), err)
	}

	return errs.Wrap(errs.ErrKindQuery, err.Error(), err)
}

func sqlstateClass(code string) string {
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}
