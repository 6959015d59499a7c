// Package config assembles the runtime configuration. Sources are layered:
// built-in defaults, then an optional YAML file, then environment
// variables (a .env file in the working directory is loaded first).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errlog"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/filestore"
	"github.com/koustreak/talenttrack/internal/logger"
	"github.com/koustreak/talenttrack/internal/server"
)

// APP_ENV values.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full application configuration.
type Config struct {
	Env       string
	Server    server.Config
	Database  database.Config
	Log       *logger.Config
	ErrorLog  errlog.Config
	FileStore filestore.Config

	logLevelSet bool
	portSet     bool
}

// Development reports whether APP_ENV is "development".
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env:       EnvProduction,
		Server:    server.DefaultConfig(),
		Database:  database.DefaultConfig(),
		Log:       logger.DefaultConfig(),
		ErrorLog:  errlog.DefaultConfig(),
		FileStore: filestore.DefaultConfig(),
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.finish()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts that cannot be fixed with a default.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.FileStore.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server address is required")
	}
	return nil
}

// finish derives the fields that depend on the environment.
func (c *Config) finish() {
	c.Database.Development = c.Development()
	if !c.portSet && c.Database.Dialect == database.DialectMySQL {
		c.Database.Port = 3306
	}
	if c.Development() && !c.logLevelSet {
		c.Log.Level = "debug"
		c.Log.Format = "console"
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
	}

	var f fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file", err)
	}
	f.apply(c)
	return nil
}

// applyEnv overrides c with every variable lookup finds.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	p := envParser{lookup: lookup}

	p.str("APP_ENV", &c.Env)

	p.str("SERVER_ADDR", &c.Server.Addr)
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	p.dur("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	p.dur("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	p.dur("SERVER_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	db := &c.Database
	p.dialect("DB_DIALECT", &db.Dialect)
	p.str("DB_NAME", &db.Database)
	p.str("DB_USER", &db.User)
	p.str("DB_PASSWORD", &db.Password)
	p.str("DB_HOST", &db.Host)
	if p.integer("DB_PORT", &db.Port) {
		c.portSet = true
	}
	p.str("DB_SSLMODE", &db.SSLMode)
	p.integer32("DB_POOL_MAX", &db.MaxConns)
	p.integer32("DB_POOL_MIN", &db.MinConns)
	p.millis("DB_POOL_ACQUIRE", &db.AcquireTimeout)
	p.millis("DB_POOL_IDLE", &db.IdleTimeout)
	p.millis("DB_CONNECT_TIMEOUT", &db.ConnectTimeout)
	p.millis("DB_QUERY_TIMEOUT", &db.QueryTimeout)

	if p.str("LOG_LEVEL", &c.Log.Level) {
		c.logLevelSet = true
	}
	p.str("LOG_FORMAT", &c.Log.Format)
	p.str("LOG_FILE", &c.Log.File)

	p.str("ERROR_LOG_DIR", &c.ErrorLog.Dir)
	p.integer("ERROR_LOG_MAX_SIZE_MB", &c.ErrorLog.MaxSizeMB)
	p.integer("ERROR_LOG_MAX_BACKUPS", &c.ErrorLog.MaxBackups)
	p.integer("ERROR_LOG_MAX_AGE_DAYS", &c.ErrorLog.MaxAgeDays)

	fs := &c.FileStore
	var provider string
	if p.str("FILESTORE_PROVIDER", &provider) {
		fs.Provider = filestore.Provider(strings.ToLower(provider))
	}
	p.str("MINIO_ENDPOINT", &fs.Endpoint)
	p.str("MINIO_ACCESS_KEY", &fs.AccessKey)
	p.str("MINIO_SECRET_KEY", &fs.SecretKey)
	p.flag("MINIO_USE_SSL", &fs.UseSSL)
	p.str("MINIO_REGION", &fs.Region)
	p.str("MINIO_BUCKET", &fs.Bucket)
	p.dur("MINIO_PRESIGN_TTL", &fs.PresignTTL)

	return p.err
}

type envParser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p *envParser) fail(key, val string, err error) {
	if p.err == nil {
		p.err = errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid value %q for %s", val, key), err)
	}
}

func (p *envParser) str(key string, dst *string) bool {
	v, ok := p.get(key)
	if ok {
		*dst = v
	}
	return ok
}

func (p *envParser) integer(key string, dst *int) bool {
	v, ok := p.get(key)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return false
	}
	*dst = n
	return true
}

func (p *envParser) integer32(key string, dst *int32) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = int32(n)
}

func (p *envParser) flag(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

// millis reads a plain number of milliseconds.
func (p *envParser) millis(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		p.fail(key, v, err)
		return
	}
	*dst = time.Duration(n) * time.Millisecond
}

// dur reads a Go duration string such as "15s".
func (p *envParser) dur(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *envParser) dialect(key string, dst *database.Dialect) {
	if v, ok := p.get(key); ok {
		*dst = database.Dialect(strings.ToLower(v))
	}
}
