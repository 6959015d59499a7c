package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig()
	cfg.Dialect = database.DialectMySQL
	cfg.Port = 0
	cfg.User = "hr"
	cfg.Password = "p@ss:word/"
	cfg.ConnectTimeout = 5 * time.Second

	parsed, err := gomysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "hr", parsed.User)
	assert.Equal(t, "p@ss:word/", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "localhost:3306", parsed.Addr)
	assert.Equal(t, "talenttrack", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.MultiStatements)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestMapConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied for user 'hr'"}, errs.ErrKindAccessDenied},
		{"db access denied", &gomysql.MySQLError{Number: 1044, Message: "Access denied to database"}, errs.ErrKindAccessDenied},
		{"unknown database", &gomysql.MySQLError{Number: 1049, Message: "Unknown database 'hr'"}, errs.ErrKindInvalidParameters},
		{"refused", &gomysql.MySQLError{Number: 2003, Message: "Can't connect"}, errs.ErrKindConnectionRefused},
		{"too many", &gomysql.MySQLError{Number: 1040, Message: "Too many connections"}, errs.ErrKindConnection},
		{"dns", &net.DNSError{Err: "no such host", Name: "mysql"}, errs.ErrKindHostNotFound},
		{"other", errors.New("weird"), errs.ErrKindUnknownConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.KindOf(mapConnectError(tt.err)))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"timeout", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"tx done", sql.ErrTxDone, errs.ErrKindTransaction},
		{"bad conn", driver.ErrBadConn, errs.ErrKindConnection},
		{"invalid conn", gomysql.ErrInvalidConn, errs.ErrKindConnection},
		{"duplicate", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, errs.ErrKindQuery},
		{"bad field", &gomysql.MySQLError{Number: 1054, Message: "Unknown column"}, errs.ErrKindQuery},
		{"other", errors.New("converting argument"), errs.ErrKindQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.KindOf(mapError(tt.err)))
		})
	}

	assert.NoError(t, mapError(nil))
}

func TestDriver_NotOpen(t *testing.T) {
	db := New(database.DefaultConfig(), nil)

	_, err := db.Exec(context.Background(), "DELETE FROM users")
	assert.True(t, errs.IsConnectionFailure(err))

	_, err = db.ListTables(context.Background())
	assert.True(t, errs.IsConnectionFailure(err))

	assert.NoError(t, db.Close())
}
