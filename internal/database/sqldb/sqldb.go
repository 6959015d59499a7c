// Package sqldb adapts sqlx handles to the database.Querier, database.Rows
// and database.Tx contracts. The mysql and sqlite drivers share it; each
// supplies its own error mapper.
package sqldb

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/koustreak/talenttrack/internal/database"
)

// ErrorMapper converts a native driver error into an *errs.Error.
// It must return nil for a nil error.
type ErrorMapper func(error) error

// Handle is the subset of *sqlx.DB and *sqlx.Tx used for statements.
type Handle interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Query runs a row-returning statement on h.
func Query(ctx context.Context, h Handle, mapErr ErrorMapper, query string, args ...any) (database.Rows, error) {
	rows, err := h.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sqlRows{rows: rows, mapErr: mapErr}, nil
}

// Exec runs a statement on h and returns the rows affected.
func Exec(ctx context.Context, h Handle, mapErr ErrorMapper, query string, args ...any) (int64, error) {
	res, err := h.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n, mapErr(err)
}

// Begin starts a transaction on db.
func Begin(ctx context.Context, db *sqlx.DB, mapErr ErrorMapper) (database.Tx, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sqlTx{tx: tx, mapErr: mapErr}, nil
}

// Strings runs a single-column query and collects the values.
func Strings(ctx context.Context, db *sqlx.DB, mapErr ErrorMapper, query string, args ...any) ([]string, error) {
	var out []string
	if err := db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// --- sqlRows wraps *sqlx.Rows ---

type sqlRows struct {
	rows   *sqlx.Rows
	mapErr ErrorMapper
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.mapErr(r.rows.Scan(dest...)) }
func (r *sqlRows) Close()                 { _ = r.rows.Close() }
func (r *sqlRows) Err() error             { return r.mapErr(r.rows.Err()) }

func (r *sqlRows) Columns() ([]string, error) {
	cols, err := r.rows.Columns()
	return cols, r.mapErr(err)
}

// --- sqlTx wraps *sqlx.Tx ---

type sqlTx struct {
	tx     *sqlx.Tx
	mapErr ErrorMapper
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return Query(ctx, t.tx, t.mapErr, query, args...)
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return Exec(ctx, t.tx, t.mapErr, query, args...)
}

func (t *sqlTx) Commit(_ context.Context) error   { return t.mapErr(t.tx.Commit()) }
func (t *sqlTx) Rollback(_ context.Context) error { return t.mapErr(t.tx.Rollback()) }
