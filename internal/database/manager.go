package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/logger"
	"github.com/koustreak/talenttrack/internal/metrics"
)

// rollbackTimeout bounds the rollback issued after a failed unit of work.
// The rollback runs on a context detached from the caller's cancellation.
const rollbackTimeout = 5 * time.Second

// ErrorSink receives every classified database failure.
// Implementations must not block and must not panic.
type ErrorSink interface {
	Record(ctx context.Context, err error)
}

// Status is the reportable connection state.
type Status struct {
	IsConnected bool           `json:"isConnected"`
	RetryCount  int            `json:"retryCount"`
	MaxRetries  int            `json:"maxRetries"`
	Config      ConfigSnapshot `json:"config"`
}

// Manager owns the lifecycle of one database pool. It authenticates with
// bounded exponential backoff, runs schema sync, queries and transactions,
// and turns every driver failure into an *errs.Error.
//
// A Manager is safe for concurrent use. Concurrent Authenticate calls,
// including the implicit ones made by Query, Sync and Transaction, share
// a single attempt.
type Manager struct {
	cfg        Config
	driver     Driver
	log        *logger.Logger
	sink       ErrorSink
	maxRetries int
	tables     []string
	sleep      func(ctx context.Context, d time.Duration) error

	auth singleflight.Group

	mu         sync.RWMutex
	connected  bool
	retryCount int

	// life is cancelled by Close to abort an authentication in flight.
	life     context.Context
	stopLife context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for lifecycle events and failures.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithErrorSink sets the collaborator that records classified failures.
func WithErrorSink(s ErrorSink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithMaxRetries overrides the Authenticate retry budget. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// WithExpectedTables makes Sync verify that every named table exists
// after migrating.
func WithExpectedTables(tables []string) Option {
	return func(m *Manager) { m.tables = tables }
}

// WithSleep replaces the backoff sleep. Tests use it to observe delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) { m.sleep = fn }
}

// NewManager returns a disconnected Manager for the given driver.
// No I/O happens until Authenticate (or a call that needs the connection).
func NewManager(cfg Config, driver Driver, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		driver:     driver,
		log:        logger.Nop(),
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
	}
	m.life, m.stopLife = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("component", "database").Str("dialect", string(driver.Dialect())).Logger()
	return m
}

// Dialect reports the engine behind the Manager, for building dialect-aware SQL.
func (m *Manager) Dialect() Dialect {
	return m.driver.Dialect()
}

// Authenticate opens and validates the pool.
//
// A failed attempt is classified, logged and retried while the retry count
// is below the budget, sleeping Backoff(retry) between attempts. When the
// budget is spent the classified error is returned and the retry count
// stays at the budget. Success resets the retry count to zero.
//
// Concurrent callers share one attempt. The attempt is not tied to any
// caller's cancellation; a caller whose ctx ends stops waiting and gets a
// connection error while the others keep waiting. Close aborts it.
func (m *Manager) Authenticate(ctx context.Context) error {
	return m.join(ctx, false)
}

// join waits for the shared authentication attempt, starting one if none
// is in flight. With skipIfConnected an attempt that finds the connection
// already up returns nil without opening again.
func (m *Manager) join(ctx context.Context, skipIfConnected bool) error {
	m.mu.RLock()
	life := m.life
	m.mu.RUnlock()

	ch := m.auth.DoChan("authenticate", func() (any, error) {
		if skipIfConnected && m.isConnected() {
			return nil, nil
		}
		actx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(life, cancel)
		defer stop()
		return nil, m.authenticate(actx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errs.Wrap(errs.ErrKindConnection, "stopped waiting for database connection", ctx.Err())
	}
}

func (m *Manager) authenticate(ctx context.Context) error {
	m.mu.Lock()
	m.retryCount = 0
	m.mu.Unlock()

	if err := m.cfg.Validate(); err != nil {
		typed := classifyAuthError(err)
		metrics.DBAuthAttemptsTotal.WithLabelValues("failure").Inc()
		m.record(ctx, typed)
		return typed
	}

	for {
		m.log.Debug("connecting to database")

		err := m.driver.Open(ctx)
		if err == nil {
			m.mu.Lock()
			m.connected = true
			m.retryCount = 0
			m.mu.Unlock()

			metrics.DBAuthAttemptsTotal.WithLabelValues("success").Inc()
			metrics.DBConnected.Set(1)
			m.log.Info("database connection established")
			return nil
		}

		typed := classifyAuthError(err)
		metrics.DBAuthAttemptsTotal.WithLabelValues("failure").Inc()
		m.record(ctx, typed)

		m.mu.Lock()
		m.connected = false
		if m.retryCount >= m.maxRetries {
			m.mu.Unlock()
			metrics.DBConnected.Set(0)
			m.log.With().Int("retries", m.maxRetries).Logger().Error("database connection retries exhausted")
			return typed
		}
		m.retryCount++
		retry := m.retryCount
		m.mu.Unlock()

		delay := Backoff(retry)
		metrics.DBAuthRetriesTotal.Inc()
		m.log.With().
			Int("retry", retry).
			Int("max_retries", m.maxRetries).
			Dur("delay", delay).
			Logger().Warn("retrying database connection")

		if serr := m.sleep(ctx, delay); serr != nil {
			return errs.Wrap(typed.Kind, typed.Message, errors.Join(err, serr))
		}
	}
}

// Sync applies the schema under the default policy (alter only in
// development, never force) overridden by opts. Without a connection it
// authenticates first and returns the authentication error unchanged.
func (m *Manager) Sync(ctx context.Context, opts ...SyncOption) error {
	if err := m.ensureConnected(ctx); err != nil {
		return err
	}

	o := SyncOptions{Alter: m.cfg.Development}
	for _, opt := range opts {
		opt(&o)
	}

	m.log.With().Any("alter", o.Alter).Any("force", o.Force).Logger().Info("synchronizing database schema")

	start := time.Now()
	err := m.driver.Sync(ctx, o)
	if err == nil && len(m.tables) > 0 {
		err = VerifyTables(ctx, m.driver, m.tables)
	}
	metrics.DBOperationDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())

	if err != nil {
		var typed *errs.Error
		if errs.KindOf(err) == errs.ErrKindSync {
			typed = errs.Wrap(errs.ErrKindSync, "database synchronization failed: "+messageOf(err), err)
		} else {
			typed = errs.Wrap(errs.ErrKindSync, "failed to synchronize database schema", err)
		}
		m.markLost(err)
		m.record(ctx, typed)
		return typed
	}

	m.log.Info("database schema synchronized")
	return nil
}

// SyncOption overrides one field of the default sync policy.
type SyncOption func(*SyncOptions)

// WithAlter enables or disables out-of-order migrations.
func WithAlter(on bool) SyncOption {
	return func(o *SyncOptions) { o.Alter = on }
}

// WithForce enables or disables dropping the schema before migrating.
func WithForce(on bool) SyncOption {
	return func(o *SyncOptions) { o.Force = on }
}

// QueryType selects how Query executes its statement.
type QueryType int

const (
	QuerySelect QueryType = iota // returns rows
	QueryExec                    // returns rows affected
)

// QueryOptions controls a single Query call.
type QueryOptions struct {
	Type    QueryType
	Args    []any
	Timeout time.Duration // zero means Config.QueryTimeout
}

// QueryOption sets one field of QueryOptions.
type QueryOption func(*QueryOptions)

// WithArgs binds positional arguments to the statement placeholders.
func WithArgs(args ...any) QueryOption {
	return func(o *QueryOptions) { o.Args = args }
}

// WithType sets the query type.
func WithType(t QueryType) QueryOption {
	return func(o *QueryOptions) { o.Type = t }
}

// AsExec runs the statement for its side effects.
func AsExec() QueryOption {
	return WithType(QueryExec)
}

// WithTimeout overrides the per-query deadline.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *QueryOptions) { o.Timeout = d }
}

// Result is the outcome of Query. Rows is never nil.
type Result struct {
	Rows         []map[string]any `json:"rows"`
	RowsAffected int64            `json:"rowsAffected"`
}

// Query runs one statement on the pool, authenticating first if needed.
// Failures are never retried.
func (m *Manager) Query(ctx context.Context, sql string, opts ...QueryOption) (*Result, error) {
	if err := m.ensureConnected(ctx); err != nil {
		return nil, err
	}

	o := QueryOptions{Type: QuerySelect}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Timeout == 0 {
		o.Timeout = m.cfg.QueryTimeout
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := m.run(ctx, m.driver, sql, o)
	op := "query"
	if o.Type == QueryExec {
		op = "exec"
	}
	metrics.DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		var typed *errs.Error
		if errs.KindOf(err) == errs.ErrKindQuery {
			typed = errs.Wrap(errs.ErrKindQuery, "query execution failed: "+messageOf(err), err)
		} else {
			typed = errs.Wrap(errs.ErrKindQuery, "database query failed", err)
		}
		m.markLost(err)
		m.record(ctx, typed)
		return nil, typed
	}
	return res, nil
}

func (m *Manager) run(ctx context.Context, q Querier, sql string, o QueryOptions) (*Result, error) {
	if o.Type == QueryExec {
		n, err := q.Exec(ctx, sql, o.Args...)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: []map[string]any{}, RowsAffected: n}, nil
	}

	rows, err := q.Query(ctx, sql, o.Args...)
	if err != nil {
		return nil, err
	}
	out, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	return &Result{Rows: out, RowsAffected: int64(len(out))}, nil
}

// Transaction runs work inside one database transaction. It commits when
// work returns nil and rolls back when work returns an error or panics.
// A work error is returned as an ErrKindTransaction carrying the original
// message. The Querier handed to work is unusable once Transaction returns.
func (m *Manager) Transaction(ctx context.Context, work func(ctx context.Context, q Querier) error) error {
	if err := m.ensureConnected(ctx); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		metrics.DBOperationDuration.WithLabelValues("transaction").Observe(time.Since(start).Seconds())
	}()

	tx, err := m.driver.Begin(ctx)
	if err != nil {
		typed := errs.Wrap(errs.ErrKindTransaction, "failed to begin transaction", err)
		m.markLost(err)
		m.record(ctx, typed)
		return typed
	}

	g := &guardedTx{tx: tx}
	defer func() {
		if p := recover(); p != nil {
			g.finish()
			m.rollback(ctx, tx)
			panic(p)
		}
	}()

	if werr := work(ctx, g); werr != nil {
		g.finish()
		m.rollback(ctx, tx)
		typed := errs.Wrap(errs.ErrKindTransaction, "transaction failed: "+messageOf(werr), werr)
		m.record(ctx, typed)
		return typed
	}

	g.finish()
	if cerr := tx.Commit(ctx); cerr != nil {
		typed := errs.Wrap(errs.ErrKindTransaction, "transaction commit failed", cerr)
		m.record(ctx, typed)
		return typed
	}
	return nil
}

// InTx is Transaction for units of work that produce a value.
// The value is returned unchanged when the transaction commits.
func InTx[T any](ctx context.Context, m *Manager, work func(ctx context.Context, q Querier) (T, error)) (T, error) {
	var out T
	err := m.Transaction(ctx, func(ctx context.Context, q Querier) error {
		v, err := work(ctx, q)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (m *Manager) rollback(ctx context.Context, tx Tx) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := tx.Rollback(rctx); err != nil {
		m.log.With().Err(err).Logger().Warn("transaction rollback failed")
	}
}

// Close releases the pool and aborts an authentication in flight. It is
// never retried. The connection is reported as disconnected only when the
// driver closed cleanly.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.stopLife()
	m.life, m.stopLife = context.WithCancel(context.Background())
	m.mu.Unlock()

	if err := m.driver.Close(); err != nil {
		typed := errs.Wrap(errs.ErrKindConnection, "failed to close database connection", err)
		m.record(context.Background(), typed)
		return typed
	}

	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()

	metrics.DBConnected.Set(0)
	m.log.Info("database connection closed")
	return nil
}

// Status returns a snapshot of the connection state. It never fails.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		IsConnected: m.connected,
		RetryCount:  m.retryCount,
		MaxRetries:  m.maxRetries,
		Config:      m.cfg.Snapshot(),
	}
}

// ensureConnected authenticates when no connection is held. A caller that
// joins a flight started after the connection came up gets nil without a
// second attempt.
func (m *Manager) ensureConnected(ctx context.Context) error {
	if m.isConnected() {
		return nil
	}
	return m.join(ctx, true)
}

func (m *Manager) isConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// markLost drops the connected flag when a driver reports a connection
// failure, so the next call authenticates again.
func (m *Manager) markLost(err error) {
	if !errs.IsConnectionFailure(err) {
		return
	}
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	metrics.DBConnected.Set(0)
}

// record logs a classified failure and hands it to the sink.
func (m *Manager) record(ctx context.Context, err *errs.Error) {
	metrics.DBErrorsTotal.WithLabelValues(err.Kind.String()).Inc()
	m.log.With().Str("kind", err.Kind.String()).Err(err.Cause).Logger().Error(err.Message)

	if m.sink == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			m.log.With().Any("panic", p).Logger().Warn("error sink panicked")
		}
	}()
	m.sink.Record(ctx, err)
}

// messageOf returns the message of the outermost *errs.Error, or the
// error text for foreign errors.
func messageOf(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// guardedTx hands a Tx to a unit of work and refuses use after the
// transaction has been completed.
type guardedTx struct {
	tx Tx

	mu   sync.Mutex
	done bool
}

var errTxDone = errs.New(errs.ErrKindTransaction, "transaction already completed")

func (g *guardedTx) finish() {
	g.mu.Lock()
	g.done = true
	g.mu.Unlock()
}

func (g *guardedTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil, errTxDone
	}
	return g.tx.Query(ctx, sql, args...)
}

func (g *guardedTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return 0, errTxDone
	}
	return g.tx.Exec(ctx, sql, args...)
}
