// Package errlog is the append-only error sink. Every failure is written as
// one JSON line carrying the error and, when known, the request that caused
// it. Writing happens on a background goroutine; callers never block on I/O.
package errlog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/logger"
	"github.com/koustreak/talenttrack/internal/metrics"
)

// Config controls where records go and how the file rotates.
type Config struct {
	Dir        string
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Buffer     int
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Dir:        "logs",
		FileName:   "error.log",
		MaxSizeMB:  50,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Buffer:     256,
	}
}

// Path is the full path of the active log file.
func (c Config) Path() string {
	return filepath.Join(c.Dir, c.FileName)
}

// ErrorInfo describes the failure.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Record is one line of the error log.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Error     ErrorInfo `json:"error"`
	Request   *Request  `json:"request"`
}

// Logger writes records asynchronously. It implements database.ErrorSink.
type Logger struct {
	out  io.WriteCloser
	log  *logger.Logger
	ch   chan Record
	done chan struct{}
	now  func() time.Time

	mu     sync.RWMutex
	closed bool
}

// New opens a rotating log file under cfg.Dir and starts the writer.
// lumberjack creates the directory on first write.
func New(cfg Config, log *logger.Logger) *Logger {
	def := DefaultConfig()
	if cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	if cfg.FileName == "" {
		cfg.FileName = def.FileName
	}
	out := &lumberjack.Logger{
		Filename:   cfg.Path(),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  false,
		Compress:   true,
	}
	return NewWithWriter(out, cfg.Buffer, log)
}

// NewWithWriter starts a Logger on an arbitrary writer.
func NewWithWriter(out io.WriteCloser, buffer int, log *logger.Logger) *Logger {
	if buffer <= 0 {
		buffer = DefaultConfig().Buffer
	}
	if log == nil {
		log = logger.Nop()
	}
	l := &Logger{
		out:  out,
		log:  log.With().Str("component", "errlog").Logger(),
		ch:   make(chan Record, buffer),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go l.run()
	return l
}

// Record queues err for writing. It satisfies database.ErrorSink.
func (l *Logger) Record(ctx context.Context, err error) {
	l.Log(ctx, err)
}

// Log queues err and returns the record id. When the queue is full or the
// logger is closed the record is dropped; the id is still returned so the
// caller can report it.
func (l *Logger) Log(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	rec := l.build(ctx, err)
	if c := capturedFrom(ctx); c != nil {
		c.remember(err, rec.ID)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		metrics.ErrorLogDroppedTotal.Inc()
		return rec.ID
	}
	select {
	case l.ch <- rec:
	default:
		metrics.ErrorLogDroppedTotal.Inc()
	}
	return rec.ID
}

// LogOnce returns the id of a record already written for err during the
// current request, and logs err otherwise.
func (l *Logger) LogOnce(ctx context.Context, err error) string {
	if c := capturedFrom(ctx); c != nil && err != nil {
		if id, ok := c.idFor(err); ok {
			return id
		}
	}
	return l.Log(ctx, err)
}

// Close stops accepting records, drains the queue and closes the file.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()

	<-l.done
	return l.out.Close()
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.ch {
		line, err := json.Marshal(rec)
		if err != nil {
			l.log.ErrorWith("failed to encode error record", err, map[string]any{"id": rec.ID})
			continue
		}
		line = append(line, '\n')
		if _, err := l.out.Write(line); err != nil {
			l.log.ErrorWith("failed to write error record", err, map[string]any{"id": rec.ID})
			continue
		}
		metrics.ErrorLogRecordsTotal.Inc()
	}
}

func (l *Logger) build(ctx context.Context, err error) Record {
	info := ErrorInfo{
		Kind:    errs.KindOf(err).String(),
		Message: err.Error(),
		Stack:   string(debug.Stack()),
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		info.Message = typed.Message
		if typed.Cause != nil {
			info.Cause = typed.Cause.Error()
		}
	}
	return Record{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Error:     info,
		Request:   requestFrom(ctx),
	}
}
