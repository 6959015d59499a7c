// Package hr holds the TalentTrack record operations used by the HTTP
// layer. Every statement goes through the database.Manager, so reads and
// writes share its implicit authentication and error taxonomy.
package hr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Record is one row keyed by column name, ready for JSON encoding.
type Record = map[string]any

// Store reads and writes HR records.
type Store struct {
	db *database.Manager
}

// NewStore returns a Store backed by m.
func NewStore(m *database.Manager) *Store {
	return &Store{db: m}
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, errs.New(errs.ErrKindInvalidInput, "limit and offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

func (s *Store) dialect() database.Dialect {
	return s.db.Dialect()
}

// list runs a built SELECT through the Manager.
func (s *Store) list(ctx context.Context, b *database.SelectBuilder) ([]Record, error) {
	sql, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	res, err := s.db.Query(ctx, sql, database.WithArgs(args...))
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// one returns the single row of b or a NotFound error naming what.
func (s *Store) one(ctx context.Context, b *database.SelectBuilder, what string, id int64) (Record, error) {
	rows, err := s.list(ctx, b.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("%s %d not found", what, id))
	}
	return rows[0], nil
}

// insertID runs an INSERT on q and returns the generated id. MySQL reads
// LAST_INSERT_ID() on the same transaction connection.
func insertID(ctx context.Context, q database.Querier, d database.Dialect, b *database.InsertBuilder) (int64, error) {
	sql, args, err := b.Returning("id").Build()
	if err != nil {
		return 0, err
	}

	if !database.SupportsReturning(d) {
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return 0, err
		}
		sql, args = "SELECT LAST_INSERT_ID() AS id", nil
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	out, err := database.ScanRows(rows)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, errs.New(errs.ErrKindQuery, "insert returned no id")
	}
	return toInt64(out[0]["id"])
}

// toInt64 normalizes the integer types the drivers hand back.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, errs.New(errs.ErrKindQuery, fmt.Sprintf("unexpected id type %T", v))
	}
}

// nullable maps empty optional strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
