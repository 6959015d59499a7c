package database

import (
	"fmt"
	"time"

	"github.com/koustreak/talenttrack/internal/errs"
)

// Dialect identifies the database engine behind the connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Config holds all settings needed to connect to and pool a database.
// It is captured once at process start and never mutated afterwards.
type Config struct {
	// Dialect is the database engine (e.g. DialectPostgres).
	Dialect Dialect

	Host     string
	Port     int
	Database string // database name; a file path (or ":memory:") for sqlite
	User     string
	Password string
	SSLMode  string // postgres only, defaults to "disable"

	// Pool tuning
	MaxConns       int32         // maximum number of connections in the pool
	MinConns       int32         // minimum number of idle connections kept alive
	AcquireTimeout time.Duration // time limit for obtaining a pooled connection when validating
	IdleTimeout    time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing a new connection
	QueryTimeout   time.Duration // default per-query deadline applied by the Manager

	// Development enables verbose logging and non-destructive schema altering.
	Development bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Dialect:        DialectPostgres,
		Host:           "localhost",
		Port:           5432,
		Database:       "talenttrack",
		User:           "postgres",
		Password:       "password",
		SSLMode:        "disable",
		MaxConns:       20,
		MinConns:       5,
		AcquireTimeout: 30 * time.Second,
		IdleTimeout:    10 * time.Second,
		ConnectTimeout: 60 * time.Second,
		QueryTimeout:   60 * time.Second,
	}
}

// Validate rejects configurations no driver could connect with.
// The error is an ErrKindInvalidParameters so it lands in the connection family.
func (c Config) Validate() error {
	switch c.Dialect {
	case DialectPostgres, DialectMySQL:
		if c.Host == "" {
			return errs.New(errs.ErrKindInvalidParameters, "database host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return errs.New(errs.ErrKindInvalidParameters, fmt.Sprintf("database port %d out of range", c.Port))
		}
	case DialectSQLite:
	default:
		return errs.New(errs.ErrKindInvalidParameters, fmt.Sprintf("unsupported dialect %q", c.Dialect))
	}
	if c.Database == "" {
		return errs.New(errs.ErrKindInvalidParameters, "database name is required")
	}
	if c.MaxConns < 1 {
		return errs.New(errs.ErrKindInvalidParameters, "pool max must be at least 1")
	}
	if c.MinConns < 0 || c.MinConns > c.MaxConns {
		return errs.New(errs.ErrKindInvalidParameters,
			fmt.Sprintf("pool min %d must be between 0 and pool max %d", c.MinConns, c.MaxConns))
	}
	// Open bounds every attempt by AcquireTimeout; the other timeouts treat zero as unlimited.
	if c.AcquireTimeout <= 0 {
		return errs.New(errs.ErrKindInvalidParameters, "pool acquire timeout must be positive")
	}
	if c.ConnectTimeout < 0 || c.IdleTimeout < 0 || c.QueryTimeout < 0 {
		return errs.New(errs.ErrKindInvalidParameters, "database timeouts must not be negative")
	}
	return nil
}

// ConfigSnapshot is the non-secret part of Config reported by Status.
type ConfigSnapshot struct {
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	Database string  `json:"database"`
	Dialect  Dialect `json:"dialect"`
}

// Snapshot returns the reportable view of c.
func (c Config) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Dialect:  c.Dialect,
	}
}
