package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("DB_NAME", ":memory:")
	t.Setenv("DB_POOL_MIN", "1")
	t.Setenv("SERVER_ADDR", "127.0.0.1:0")
	t.Setenv("FILESTORE_PROVIDER", "none")
	t.Setenv("ERROR_LOG_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "talenttrack "+version)
}

func TestServe_SignalDuringStartupShutsDownCleanly(t *testing.T) {
	sqliteEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx, "serve")
	require.NoError(t, err)
	assert.Contains(t, out, "Shutting down TalentTrack")
}

func TestServe_InvalidConfigReturnsError(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("DB_POOL_ACQUIRE", "0")

	_, err := execute(t, context.Background(), "serve")
	require.Error(t, err)
}

func TestMigrate_SQLite(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, context.Background(), "migrate")
	require.NoError(t, err)
}
