package mysql

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/migrations"
	"github.com/koustreak/talenttrack/internal/database/sqldb"
	"github.com/koustreak/talenttrack/internal/logger"
)

// DB implements database.Driver for MySQL using database/sql and sqlx
type DB struct {
	cfg database.Config
	log *logger.Logger

	mu    sync.RWMutex
	sqlDB *sqlx.DB
}

// New creates a new MySQL DB instance (does not connect yet)
func New(cfg database.Config, log *logger.Logger) *DB {
	if log == nil {
		log = logger.Nop()
	}
	return &DB{cfg: cfg, log: log}
}

var _ database.Driver = (*DB)(nil)

// Dialect reports database.DialectMySQL
func (db *DB) Dialect() database.Dialect {
	return database.DialectMySQL
}

// Open opens the pool if needed and verifies it within the acquire timeout
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	created := false
	if db.sqlDB == nil {
		sqlDB, err := buildPool(db.cfg)
		if err != nil {
			return err
		}
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

// Close shuts down the connection pool
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

// Sync applies the embedded mysql migrations
func (db *DB) Sync(ctx context.Context, opts database.SyncOptions) error {
	sqlDB, err := db.acquire()
	if err != nil {
		return err
	}
	return migrations.Apply(ctx, sqlDB.DB, database.DialectMySQL, opts, db.log)
}

// SchemaVersion returns the applied migration version
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	sqlDB, err := db.acquire()
	if err != nil {
		return 0, err
	}
	return migrations.Version(ctx, sqlDB.DB, database.DialectMySQL)
}

// ListTables returns the base tables of the connected database
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

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
