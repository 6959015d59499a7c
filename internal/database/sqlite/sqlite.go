// Package sqlite is the embedded database.Driver used for local
// development and tests. It runs the pure-Go modernc.org/sqlite engine,
// so no server is needed.
package sqlite

import (
	"context"
	"net/url"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/migrations"
	"github.com/koustreak/talenttrack/internal/database/sqldb"
	"github.com/koustreak/talenttrack/internal/logger"
)

const busyTimeoutMillis = "5000"

// DB implements database.Driver for SQLite
type DB struct {
	cfg database.Config
	log *logger.Logger

	mu    sync.RWMutex
	sqlDB *sqlx.DB
}

// New creates a new SQLite DB instance (does not open the file yet).
// cfg.Database is a file path or ":memory:".
func New(cfg database.Config, log *logger.Logger) *DB {
	if log == nil {
		log = logger.Nop()
	}
	return &DB{cfg: cfg, log: log}
}

var _ database.Driver = (*DB)(nil)

// Dialect reports database.DialectSQLite
func (db *DB) Dialect() database.Dialect {
	return database.DialectSQLite
}

// Open opens the database file if needed and pings it
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	created := false
	if db.sqlDB == nil {
		sqlDB, err := sqlx.Open("sqlite", buildDSN(db.cfg.Database))
		if err != nil {
			return mapConnectError(err)
		}
		configurePool(sqlDB, db.cfg)
		db.sqlDB = sqlDB
		created = true
	}

	pctx, cancel := context.WithTimeout(ctx, db.cfg.AcquireTimeout)
	defer cancel()
	if err := db.sqlDB.PingContext(pctx); err != nil {
		if created {
			_ = db.sqlDB.Close()
			db.sqlDB = nil
		}
		return mapConnectError(err)
	}
	return nil
}

// Close closes the database handle
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.sqlDB == nil {
		return nil
	}
	if err := db.sqlDB.Close(); err != nil {
		return mapError(err)
	}
	db.sqlDB = nil
	return nil
}

func (db *DB) acquire() (*sqlx.DB, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.sqlDB == nil {
		return nil, errNotOpen
	}
	return db.sqlDB, nil
}

// Sync applies the embedded sqlite migrations
func (db *DB) Sync(ctx context.Context, opts database.SyncOptions) error {
	sqlDB, err := db.acquire()
	if err != nil {
		return err
	}
	return migrations.Apply(ctx, sqlDB.DB, database.DialectSQLite, opts, db.log)
}

// SchemaVersion returns the applied migration version
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	sqlDB, err := db.acquire()
	if err != nil {
		return 0, err
	}
	return migrations.Version(ctx, sqlDB.DB, database.DialectSQLite)
}

// ListTables returns the user tables of the database
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	sqlDB, err := db.acquire()
	if err != nil {
		return nil, err
	}
	return sqldb.Strings(ctx, sqlDB, mapError, q)
}

// Query executes a query returning multiple rows
func (db *DB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	sqlDB, err := db.acquire()
	if err != nil {
		return nil, err
	}
	return sqldb.Query(ctx, sqlDB, mapError, query, args...)
}

// Exec executes a statement returning rows affected
func (db *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	sqlDB, err := db.acquire()
	if err != nil {
		return 0, err
	}
	return sqldb.Exec(ctx, sqlDB, mapError, query, args...)
}

// Begin starts a transaction
func (db *DB) Begin(ctx context.Context) (database.Tx, error) {
	sqlDB, err := db.acquire()
	if err != nil {
		return nil, err
	}
	return sqldb.Begin(ctx, sqlDB, mapError)
}

// buildDSN turns a path into a modernc DSN with foreign keys enforced.
func buildDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout("+busyTimeoutMillis+")")
	if !isMemory(path) {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// configurePool applies the pool bounds. An in-memory database lives only
// as long as its single connection, so that connection is never recycled.
func configurePool(db *sqlx.DB, cfg database.Config) {
	if isMemory(cfg.Database) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxIdleTime(cfg.IdleTimeout)
}

func isMemory(path string) bool {
	return path == ":memory:"
}
