package main

import (
	"github.com/koustreak/talenttrack/internal/config"
	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/migrations"
	"github.com/koustreak/talenttrack/internal/database/mysql"
	"github.com/koustreak/talenttrack/internal/database/postgres"
	"github.com/koustreak/talenttrack/internal/database/sqlite"
	"github.com/koustreak/talenttrack/internal/errlog"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/logger"
)

// app is the set of long-lived collaborators every command needs.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	errlog *errlog.Logger
	db     *database.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log)
	logger.SetGlobal(log)

	sink := errlog.New(cfg.ErrorLog, log)

	driver, err := newDriver(cfg.Database, log)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	db := database.NewManager(cfg.Database, driver,
		database.WithLogger(log),
		database.WithErrorSink(sink),
		database.WithExpectedTables(migrations.Tables),
	)
	return &app{cfg: cfg, log: log, errlog: sink, db: db}, nil
}

func newDriver(cfg database.Config, log *logger.Logger) (database.Driver, error) {
	switch cfg.Dialect {
	case database.DialectPostgres:
		return postgres.New(cfg, log), nil
	case database.DialectMySQL:
		return mysql.New(cfg, log), nil
	case database.DialectSQLite:
		return sqlite.New(cfg, log), nil
	default:
		return nil, errs.New(errs.ErrKindInvalidParameters, "unsupported dialect "+string(cfg.Dialect))
	}
}

// close releases the database and flushes the error log. The database
// error, if any, wins.
func (a *app) close() error {
	dbErr := a.db.Close()
	logErr := a.errlog.Close()
	if dbErr != nil {
		return dbErr
	}
	return logErr
}
