package database

import "context"

// Querier is the statement surface shared by the pool and by transactions.
// Errors returned by implementations are always *errs.Error.
type Querier interface {
	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec executes a SQL statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Tx is a driver transaction. Only the Manager commits or rolls back;
// units of work see it through the Querier interface.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Driver is the contract every dialect implements for the Manager.
// The Manager never imports the postgres, mysql or sqlite packages.
//
// Drivers translate their native errors into *errs.Error before returning:
// connection failures carry one of the connection kinds, statement failures
// ErrKindQuery, and migration failures reported by the server ErrKindSync.
type Driver interface {
	// Dialect reports which engine the driver talks to.
	Dialect() Dialect

	// Open creates the pool on first use and validates it with a ping.
	// Calling Open on an already open driver only pings.
	Open(ctx context.Context) error

	// Sync applies the embedded schema migrations under the given policy.
	Sync(ctx context.Context, opts SyncOptions) error

	// Begin starts a transaction on a pooled connection.
	Begin(ctx context.Context) (Tx, error)

	// ListTables returns the user tables visible to the connection.
	ListTables(ctx context.Context) ([]string, error)

	// Close releases the pool. A closed driver may be opened again.
	Close() error

	Querier
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// SyncOptions controls schema synchronization.
type SyncOptions struct {
	// Alter permits non-destructive adjustments: migrations that were added
	// out of order are applied instead of rejected.
	Alter bool

	// Force drops the whole schema (migrating down to version 0) before
	// migrating up again. Destroys data.
	Force bool
}
