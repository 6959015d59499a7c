package mysql

import (
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

const (
	defaultConnMaxLifetime = 30 * time.Minute
	defaultPort            = 3306
)

// buildPool configures and returns a pool with the configured bounds.
// database/sql dials lazily; the caller pings.
func buildPool(cfg database.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidParameters, "invalid mysql config", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	return db, nil
}

// buildDSN constructs the MySQL DSN string
func buildDSN(cfg database.Config) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	c := gomysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.MultiStatements = true
	c.Timeout = cfg.ConnectTimeout
	c.ReadTimeout = cfg.QueryTimeout
	return c.FormatDSN()
}
