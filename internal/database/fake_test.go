package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// fakeDriver is a Driver whose behaviour is set per test through func fields.
// Nil funcs succeed.
type fakeDriver struct {
	OpenFn  func(ctx context.Context) error
	SyncFn  func(ctx context.Context, opts SyncOptions) error
	BeginFn func(ctx context.Context) (Tx, error)
	ListFn  func(ctx context.Context) ([]string, error)
	CloseFn func() error
	QueryFn func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFn  func(ctx context.Context, sql string, args ...any) (int64, error)

	opens   atomic.Int32
	queries atomic.Int32
}

func (d *fakeDriver) Dialect() Dialect { return DialectSQLite }

func (d *fakeDriver) Open(ctx context.Context) error {
	d.opens.Add(1)
	if d.OpenFn != nil {
		return d.OpenFn(ctx)
	}
	return nil
}

func (d *fakeDriver) Sync(ctx context.Context, opts SyncOptions) error {
	if d.SyncFn != nil {
		return d.SyncFn(ctx, opts)
	}
	return nil
}

func (d *fakeDriver) Begin(ctx context.Context) (Tx, error) {
	if d.BeginFn != nil {
		return d.BeginFn(ctx)
	}
	return &fakeTx{}, nil
}

func (d *fakeDriver) ListTables(ctx context.Context) ([]string, error) {
	if d.ListFn != nil {
		return d.ListFn(ctx)
	}
	return nil, nil
}

func (d *fakeDriver) Close() error {
	if d.CloseFn != nil {
		return d.CloseFn()
	}
	return nil
}

func (d *fakeDriver) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	d.queries.Add(1)
	if d.QueryFn != nil {
		return d.QueryFn(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (d *fakeDriver) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	d.queries.Add(1)
	if d.ExecFn != nil {
		return d.ExecFn(ctx, sql, args...)
	}
	return 0, nil
}

// fakeTx records how the transaction ended.
type fakeTx struct {
	ExecFn         func(ctx context.Context, sql string, args ...any) (int64, error)
	CommitErr      error
	commits        atomic.Int32
	rollbacks      atomic.Int32
	rollbackCtxErr error
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return &fakeRows{}, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if t.ExecFn != nil {
		return t.ExecFn(ctx, sql, args...)
	}
	return 1, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.commits.Add(1)
	return t.CommitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rollbacks.Add(1)
	t.rollbackCtxErr = ctx.Err()
	return nil
}

// fakeRows serves a fixed result set.
type fakeRows struct {
	cols   []string
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		*(d.(*any)) = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.err }

// recordingSink keeps every error handed to it.
type recordingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *recordingSink) Record(_ context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// sleepRecorder replaces the backoff sleep and keeps the requested delays.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dialect = DialectSQLite
	cfg.Database = ":memory:"
	return cfg
}

// gatedSleep blocks each backoff until release is closed or ctx ends.
// started is closed when the first sleep begins.
type gatedSleep struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedSleep() *gatedSleep {
	return &gatedSleep{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSleep) sleep(ctx context.Context, _ time.Duration) error {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
