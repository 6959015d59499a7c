package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/filestore"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	cfg.finish()

	assert.False(t, cfg.Development())
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, database.DialectPostgres, cfg.Database.Dialect)
	assert.Equal(t, "talenttrack", cfg.Database.Database)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)
	assert.Equal(t, 30*time.Second, cfg.Database.AcquireTimeout)
	assert.Equal(t, 10*time.Second, cfg.Database.IdleTimeout)
	assert.Equal(t, 60*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Database.Development)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"APP_ENV":            "development",
		"PORT":               "8081",
		"DB_DIALECT":         "MySQL",
		"DB_NAME":            "hr",
		"DB_USER":            "hr_app",
		"DB_PASSWORD":        "secret",
		"DB_HOST":            "db.internal",
		"DB_POOL_MAX":        "40",
		"DB_POOL_MIN":        "2",
		"DB_POOL_ACQUIRE":    "1500",
		"DB_POOL_IDLE":       "2000",
		"DB_CONNECT_TIMEOUT": "5000",
		"DB_QUERY_TIMEOUT":   "7000",
		"MINIO_USE_SSL":      "true",
		"MINIO_PRESIGN_TTL":  "5m",
		"FILESTORE_PROVIDER": "NONE",
		"DB_SSLMODE":         "",
	}))
	require.NoError(t, err)
	cfg.finish()

	assert.True(t, cfg.Development())
	assert.Equal(t, ":8081", cfg.Server.Addr)

	db := cfg.Database
	assert.Equal(t, database.DialectMySQL, db.Dialect)
	assert.Equal(t, "hr", db.Database)
	assert.Equal(t, "hr_app", db.User)
	assert.Equal(t, "secret", db.Password)
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, 3306, db.Port)
	assert.Equal(t, "disable", db.SSLMode)
	assert.Equal(t, int32(40), db.MaxConns)
	assert.Equal(t, int32(2), db.MinConns)
	assert.Equal(t, 1500*time.Millisecond, db.AcquireTimeout)
	assert.Equal(t, 2*time.Second, db.IdleTimeout)
	assert.Equal(t, 5*time.Second, db.ConnectTimeout)
	assert.Equal(t, 7*time.Second, db.QueryTimeout)
	assert.True(t, db.Development)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.True(t, cfg.FileStore.UseSSL)
	assert.Equal(t, 5*time.Minute, cfg.FileStore.PresignTTL)
	assert.Equal(t, filestore.ProviderNone, cfg.FileStore.Provider)
}

func TestApplyEnv_ExplicitPortAndLevelWin(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(mapLookup(map[string]string{
		"APP_ENV":    "development",
		"DB_DIALECT": "mysql",
		"DB_PORT":    "13306",
		"LOG_LEVEL":  "warn",
	})))
	cfg.finish()

	assert.Equal(t, 13306, cfg.Database.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"DB_PORT":           "five",
		"DB_POOL_MAX":       "lots",
		"DB_POOL_ACQUIRE":   "-1",
		"DB_QUERY_TIMEOUT":  "1m",
		"MINIO_USE_SSL":     "maybe",
		"MINIO_PRESIGN_TTL": "forever",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			err := Default().applyEnv(mapLookup(map[string]string{key: val}))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t, "APP_ENV", "PORT", "SERVER_ADDR", "DB_DIALECT", "DB_HOST", "DB_PORT", "DB_NAME",
		"DB_USER", "DB_PASSWORD", "DB_POOL_MIN", "LOG_LEVEL", "FILESTORE_PROVIDER", "MINIO_BUCKET")
	t.Setenv("TT_TEST_DB_PASSWORD", "from-env")
	t.Setenv("DB_POOL_MAX", "30")

	path := filepath.Join(t.TempDir(), "talenttrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
server:
  addr: ":9000"
  shutdown_timeout: 3s
database:
  dialect: postgres
  host: pg.internal
  name: hr
  user: hr_app
  password: ${TT_TEST_DB_PASSWORD}
  pool:
    max: 25
    min: 4
    acquire: 2s
log:
  level: warn
filestore:
  provider: minio
  bucket: hr-docs
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, "hr", cfg.Database.Database)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, int32(30), cfg.Database.MaxConns)
	assert.Equal(t, int32(4), cfg.Database.MinConns)
	assert.Equal(t, 2*time.Second, cfg.Database.AcquireTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "hr-docs", cfg.FileStore.Bucket)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t, "DB_DIALECT", "DB_POOL_MAX", "DB_POOL_MIN", "DB_POOL_ACQUIRE")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsInvalidInput(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o600))
	_, err = Load(path)
	assert.True(t, errs.IsInvalidInput(err))

	t.Setenv("DB_POOL_MIN", "50")
	_, err = Load("")
	require.Error(t, err)
	assert.Equal(t, errs.ErrKindInvalidParameters, errs.KindOf(err))
}

func TestLoad_ZeroAcquireTimeoutRejected(t *testing.T) {
	clearEnv(t, "DB_DIALECT", "DB_POOL_MAX", "DB_POOL_MIN")
	t.Setenv("DB_POOL_ACQUIRE", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, errs.ErrKindInvalidParameters, errs.KindOf(err))
	assert.Contains(t, err.Error(), "acquire timeout")
}
