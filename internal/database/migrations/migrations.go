// Package migrations holds the TalentTrack schema as goose SQL migrations,
// one directory per dialect, and applies them under a sync policy.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/logger"
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var files embed.FS

// Tables lists every table the migrations create.
var Tables = []string{
	"users",
	"departments",
	"employees",
	"attendance",
	"leaves",
	"payroll",
	"performance",
	"training",
	"training_participants",
	"documents",
	"employee_documents",
	"recruitment",
	"onboarding",
	"offboarding",
	"notifications",
}

// goose keeps its base FS, dialect and logger in package globals.
var mu sync.Mutex

// Apply migrates db to the latest schema version.
//
// By default pending migrations are applied strictly in order. Alter also
// applies migrations that are older than the current version but were
// never run. Force migrates all the way down before migrating up.
func Apply(ctx context.Context, db *sql.DB, d database.Dialect, opts database.SyncOptions, log *logger.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	dialect, err := gooseDialect(d)
	if err != nil {
		return err
	}

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{log})
	if err := goose.SetDialect(dialect); err != nil {
		return errs.Wrap(errs.ErrKindSync, "failed to select migration dialect", err)
	}

	dir := string(d)

	if opts.Force {
		log.Warn("dropping schema before migrating")
		if err := goose.ResetContext(ctx, db, dir); err != nil {
			return errs.Wrap(errs.ErrKindSync, fmt.Sprintf("schema reset failed: %v", err), err)
		}
	}

	var gopts []goose.OptionsFunc
	if opts.Alter {
		gopts = append(gopts, goose.WithAllowMissing())
	}
	if err := goose.UpContext(ctx, db, dir, gopts...); err != nil {
		return errs.Wrap(errs.ErrKindSync, fmt.Sprintf("migration failed: %v", err), err)
	}
	return nil
}

// Version returns the schema version recorded in db.
func Version(ctx context.Context, db *sql.DB, d database.Dialect) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	dialect, err := gooseDialect(d)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, errs.Wrap(errs.ErrKindSync, "failed to select migration dialect", err)
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindSync, "failed to read schema version", err)
	}
	return v, nil
}

func gooseDialect(d database.Dialect) (string, error) {
	switch d {
	case database.DialectPostgres:
		return "postgres", nil
	case database.DialectMySQL:
		return "mysql", nil
	case database.DialectSQLite:
		return "sqlite3", nil
	default:
		return "", errs.New(errs.ErrKindSync, fmt.Sprintf("no migrations for dialect %q", d))
	}
}

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) { g.log.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.log.Errorf(format, v...) }
