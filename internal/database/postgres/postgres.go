package postgres

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/migrations"
	"github.com/koustreak/talenttrack/internal/logger"
)

// DB implements database.Driver for PostgreSQL using pgxpool
type DB struct {
	cfg database.Config
	log *logger.Logger

	mu    sync.RWMutex
	pool  *pgxpool.Pool
	sqlDB *sql.DB // goose view of the pool, created on first Sync
}

// New creates a new Postgres DB instance (does not connect yet)
func New(cfg database.Config, log *logger.Logger) *DB {
	if log == nil {
		log = logger.Nop()
	}
	return &DB{cfg: cfg, log: log}
}

var _ database.Driver = (*DB)(nil)

// Dialect reports database.DialectPostgres
func (db *DB) Dialect() database.Dialect {
	return database.DialectPostgres
}

// Open creates the pool if needed and pings it within the acquire timeout.
// A pool that fails its first ping is discarded so the next Open dials afresh.
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	created := false
	if db.pool == nil {
		pool, err := buildPool(ctx, db.cfg)
		if err != nil {
			return err
		}
		db.pool = pool
		created = true
	}

	pctx, cancel := context.WithTimeout(ctx, db.cfg.AcquireTimeout)
	defer cancel()
	if err := db.pool.Ping(pctx); err != nil {
		if created {
			db.pool.Close()
			db.pool = nil
		}
		return mapConnectError(err)
	}
	return nil
}

// Close shuts down the connection pool
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.pool != nil {
		db.pool.Close()
		db.pool = nil
		db.sqlDB = nil
	}
	return nil
}

// Sync applies the embedded postgres migrations
func (db *DB) Sync(ctx context.Context, opts database.SyncOptions) error {
	sqlDB, err := db.database()
	if err != nil {
		return err
	}
	return migrations.Apply(ctx, sqlDB, database.DialectPostgres, opts, db.log)
}

// SchemaVersion returns the applied migration version
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	sqlDB, err := db.database()
	if err != nil {
		return 0, err
	}
	return migrations.Version(ctx, sqlDB, database.DialectPostgres)
}

// database returns a database/sql handle sharing the pool.
func (db *DB) database() (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.pool == nil {
		return nil, errNotOpen
	}
	if db.sqlDB == nil {
		db.sqlDB = stdlib.OpenDBFromPool(db.pool)
	}
	return db.sqlDB, nil
}

func (db *DB) acquire() (*pgxpool.Pool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.pool == nil {
		return nil, errNotOpen
	}
	return db.pool, nil
}

// ListTables returns the base tables of the current schema
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Query executes a query returning multiple rows
func (db *DB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return &pgRows{rows: rows}, nil
}

// Exec executes a statement returning the number of rows affected
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	pool, err := db.acquire()
	if err != nil {
		return 0, err
	}
	tag, err := pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// Begin starts a transaction
func (db *DB) Begin(ctx context.Context) (database.Tx, error) {
	pool, err := db.acquire()
	if err != nil {
		return nil, err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &pgTx{tx: tx}, nil
}

// --- pgRows wraps pgx.Rows ---

type pgRows struct{ rows pgx.Rows }

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return mapError(r.rows.Scan(dest...)) }
func (r *pgRows) Close()                 { r.rows.Close() }
func (r *pgRows) Err() error             { return mapError(r.rows.Err()) }

func (r *pgRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// --- pgTx wraps pgx.Tx ---

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return &pgRows{rows: rows}, nil
}

func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return mapError(t.tx.Rollback(ctx))
}
