package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/migrations"
	"github.com/koustreak/talenttrack/internal/database/sqlite"
	"github.com/koustreak/talenttrack/internal/filestore"
	"github.com/koustreak/talenttrack/internal/metrics"
)

type recordingLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *recordingLog) LogOnce(_ context.Context, err error) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
	return "rec-1"
}

func (l *recordingLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

type fakeFiles struct{}

func (fakeFiles) Ping(context.Context) error { return nil }
func (fakeFiles) Close() error               { return nil }
func (fakeFiles) PutObject(context.Context, string, io.Reader, int64, string) (*filestore.ObjectInfo, error) {
	return nil, nil
}
func (fakeFiles) GetObject(context.Context, string) (filestore.Object, error) { return nil, nil }
func (fakeFiles) StatObject(_ context.Context, key string) (*filestore.ObjectInfo, error) {
	return &filestore.ObjectInfo{Key: key}, nil
}
func (fakeFiles) PresignGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

type fixture struct {
	srv *Server
	db  *database.Manager
	log *recordingLog
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.Dialect = database.DialectSQLite
	cfg.Database = ":memory:"

	m := database.NewManager(cfg, sqlite.New(cfg, nil),
		database.WithMaxRetries(0), database.WithExpectedTables(migrations.Tables))
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Sync(context.Background()))

	log := &recordingLog{}
	opts.Manager = m
	opts.ErrorLog = log
	opts.Version = "1.2.3"
	return &fixture{srv: New(opts), db: m, log: log}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	assert.Equal(t, false, body["success"])
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error object in %v", body)
	return e
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))

	rec, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "TalentTrack Backend is running", body["message"])
	assert.NotEmpty(t, body["timestamp"])

	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	assert.Equal(t, before+1, after)
}

func TestAPIInfoAndStatus(t *testing.T) {
	f := newFixture(t, Options{})

	rec, body := f.do(t, http.MethodGet, "/api/v1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TalentTrack API v1", body["message"])
	assert.Equal(t, "1.2.3", body["version"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "connected", body["database"])
	conn, ok := body["connection"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, conn["isConnected"])
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, Options{})

	rec, body := f.do(t, http.MethodGet, "/api/v1/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	e := errorOf(t, body)
	assert.Equal(t, "Route /api/v1/nowhere not found", e["message"])
	assert.Equal(t, "NOT_FOUND_ERROR", e["code"])
	assert.Equal(t, "rec-1", e["id"])
	assert.Nil(t, e["kind"])
	assert.Equal(t, 1, f.log.count())
}

func TestDepartmentRoutes(t *testing.T) {
	f := newFixture(t, Options{})

	rec, body := f.do(t, http.MethodPost, "/api/v1/departments", `{"name":"Engineering","location":"Berlin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	created := body["data"].(map[string]any)
	assert.Equal(t, "Engineering", created["name"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/departments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/departments/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Berlin", body["data"].(map[string]any)["location"])

	rec, _ = f.do(t, http.MethodGet, "/api/v1/departments/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"blank name", http.MethodPost, "/api/v1/departments", `{"name":""}`},
		{"malformed json", http.MethodPost, "/api/v1/departments", `{"name":`},
		{"bad id", http.MethodGet, "/api/v1/employees/abc", ""},
		{"bad department filter", http.MethodGet, "/api/v1/employees?department_id=x", ""},
		{"bad limit", http.MethodGet, "/api/v1/employees?limit=ten", ""},
		{"bad status filter", http.MethodGet, "/api/v1/employees?status=retired", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorOf(t, body)["code"])
		})
	}
}

func TestEmployeeRoutes(t *testing.T) {
	f := newFixture(t, Options{})

	rec, body := f.do(t, http.MethodPost, "/api/v1/employees",
		`{"employee_id":"E-1","first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","hire_date":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "E-1", body["data"].(map[string]any)["employee_id"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/employees?status=active&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = f.do(t, http.MethodGet, "/api/v1/employees/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/api/v1/employees",
		`{"employee_id":"E-1","first_name":"Ada","last_name":"Lovelace","email":"other@example.com","hire_date":"2024-03-01"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DATABASE_ERROR", errorOf(t, body)["code"])
}

func insertDocument(t *testing.T, m *database.Manager) {
	t.Helper()
	_, err := m.Query(context.Background(),
		"INSERT INTO documents (title, document_type, file_name, file_path, access_level, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		database.AsExec(), database.WithArgs("contract", "contract", "ada.pdf", "contracts/ada.pdf", "internal", true))
	require.NoError(t, err)
}

func TestDocumentDownload(t *testing.T) {
	f := newFixture(t, Options{Files: fakeFiles{}, PresignTTL: time.Minute})
	insertDocument(t, f.db)

	rec, body := f.do(t, http.MethodGet, "/api/v1/documents/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada.pdf", body["data"].(map[string]any)["file_name"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/documents/1/download", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://files.example.com/contracts/ada.pdf", body["data"].(map[string]any)["url"])
}

func TestDocumentDownload_NoStorage(t *testing.T) {
	f := newFixture(t, Options{})
	insertDocument(t, f.db)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/documents/1/download", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoverer(t *testing.T) {
	f := newFixture(t, Options{Development: true})
	f.srv.router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec, body := f.do(t, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := errorOf(t, body)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", e["code"])
	assert.Contains(t, e["message"], "panic: kaboom")
	assert.Equal(t, "unknown", e["kind"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(t, http.MethodGet, "/health", "")

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
