package hr

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/database/sqlite"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/filestore"
)

func newStore(t *testing.T) (*Store, *database.Manager) {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.Dialect = database.DialectSQLite
	cfg.Database = ":memory:"

	m := database.NewManager(cfg, sqlite.New(cfg, nil), database.WithMaxRetries(0))
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Sync(context.Background()))
	return NewStore(m), m
}

func ptr[T any](v T) *T { return &v }

func newEmployee(id, email string) NewEmployee {
	return NewEmployee{
		EmployeeID: id,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      email,
		HireDate:   "2024-03-01",
	}
}

func count(t *testing.T, m *database.Manager, table string) int64 {
	t.Helper()
	res, err := m.Query(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	n, err := toInt64(res.Rows[0]["n"])
	require.NoError(t, err)
	return n
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	eng, err := s.CreateDepartment(ctx, NewDepartment{Name: "  Engineering ", Location: "Berlin", Budget: ptr(1500000.0)})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", eng["name"])
	assert.Equal(t, "Berlin", eng["location"])

	_, err = s.CreateDepartment(ctx, NewDepartment{Name: "Finance"})
	require.NoError(t, err)

	list, err := s.ListDepartments(ctx, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Engineering", list[0]["name"])
	assert.Equal(t, "Finance", list[1]["name"])

	id, err := toInt64(eng["id"])
	require.NoError(t, err)
	got, err := s.GetDepartment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", got["name"])

	_, err = s.GetDepartment(ctx, 999)
	assert.True(t, errs.IsNotFound(err))
}

func TestCreateDepartment_Invalid(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.CreateDepartment(context.Background(), NewDepartment{Name: " "})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = s.CreateDepartment(context.Background(), NewDepartment{Name: "Ops", Budget: ptr(-1.0)})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestCreateEmployee_WritesNotification(t *testing.T) {
	ctx := context.Background()
	s, m := newStore(t)

	dept, err := s.CreateDepartment(ctx, NewDepartment{Name: "Research"})
	require.NoError(t, err)
	deptID, err := toInt64(dept["id"])
	require.NoError(t, err)

	in := newEmployee("E-001", "ada@example.com")
	in.DepartmentID = &deptID
	emp, err := s.CreateEmployee(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "E-001", emp["employee_id"])
	assert.Equal(t, "full_time", emp["employment_type"])
	assert.Equal(t, "active", emp["status"])
	assert.Equal(t, int64(1), count(t, m, "notifications"))

	res, err := m.Query(ctx, "SELECT category, action_url FROM notifications")
	require.NoError(t, err)
	assert.Equal(t, "hr", res.Rows[0]["category"])
	assert.Contains(t, res.Rows[0]["action_url"], "/api/v1/employees/")
}

func TestCreateEmployee_DuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	s, m := newStore(t)

	_, err := s.CreateEmployee(ctx, newEmployee("E-001", "ada@example.com"))
	require.NoError(t, err)

	_, err = s.CreateEmployee(ctx, newEmployee("E-001", "other@example.com"))
	require.Error(t, err)
	assert.True(t, errs.IsTransactionFailed(err))

	assert.Equal(t, int64(1), count(t, m, "employees"))
	assert.Equal(t, int64(1), count(t, m, "notifications"))
}

func TestNewEmployee_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewEmployee)
	}{
		{"missing names", func(e *NewEmployee) { e.FirstName, e.LastName = "", "" }},
		{"bad email", func(e *NewEmployee) { e.Email = "not-an-email" }},
		{"bad hire date", func(e *NewEmployee) { e.HireDate = "03/01/2024" }},
		{"bad employment type", func(e *NewEmployee) { e.EmploymentType = "seasonal" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmployee("E-9", "e9@example.com")
			tt.mutate(&e)
			assert.True(t, errs.IsInvalidInput(e.Validate()))
		})
	}

	e := newEmployee("E-9", "e9@example.com")
	require.NoError(t, e.Validate())
	assert.Equal(t, "full_time", e.EmploymentType)
}

func TestListEmployees_Filters(t *testing.T) {
	ctx := context.Background()
	s, m := newStore(t)

	dept, err := s.CreateDepartment(ctx, NewDepartment{Name: "Sales"})
	require.NoError(t, err)
	deptID, err := toInt64(dept["id"])
	require.NoError(t, err)

	a := newEmployee("E-1", "a@example.com")
	a.LastName = "Able"
	a.DepartmentID = &deptID
	b := newEmployee("E-2", "b@example.com")
	b.LastName = "Baker"
	c := newEmployee("E-3", "c@example.com")
	c.LastName = "Cole"
	c.DepartmentID = &deptID
	for _, e := range []NewEmployee{c, b, a} {
		_, err := s.CreateEmployee(ctx, e)
		require.NoError(t, err)
	}
	_, err = m.Query(ctx, "UPDATE employees SET status = 'on_leave' WHERE employee_id = 'E-3'", database.AsExec())
	require.NoError(t, err)

	all, err := s.ListEmployees(ctx, EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Able", all[0]["last_name"])
	assert.Equal(t, "Cole", all[2]["last_name"])

	inDept, err := s.ListEmployees(ctx, EmployeeFilter{DepartmentID: &deptID})
	require.NoError(t, err)
	assert.Len(t, inDept, 2)

	onLeave, err := s.ListEmployees(ctx, EmployeeFilter{Status: "on_leave"})
	require.NoError(t, err)
	require.Len(t, onLeave, 1)
	assert.Equal(t, "E-3", onLeave[0]["employee_id"])

	paged, err := s.ListEmployees(ctx, EmployeeFilter{Page: Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Baker", paged[0]["last_name"])

	_, err = s.ListEmployees(ctx, EmployeeFilter{Status: "retired"})
	assert.True(t, errs.IsInvalidInput(err))
	_, err = s.ListEmployees(ctx, EmployeeFilter{Page: Page{Limit: -1}})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestPage_Normalize(t *testing.T) {
	p, err := Page{}.normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, p.Limit)

	p, err = Page{Limit: 10000}.normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)
}

type fakeFiles struct {
	statErr error
	keys    []string
}

func (f *fakeFiles) Ping(context.Context) error { return nil }
func (f *fakeFiles) Close() error               { return nil }
func (f *fakeFiles) PutObject(context.Context, string, io.Reader, int64, string) (*filestore.ObjectInfo, error) {
	return nil, nil
}
func (f *fakeFiles) GetObject(context.Context, string) (filestore.Object, error) { return nil, nil }
func (f *fakeFiles) StatObject(_ context.Context, key string) (*filestore.ObjectInfo, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	return &filestore.ObjectInfo{Key: key}, nil
}
func (f *fakeFiles) PresignGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.keys = append(f.keys, key)
	return "https://files.example.com/" + key + "?sig=abc", nil
}

func insertDocument(t *testing.T, m *database.Manager, title, path, access string, active bool) int64 {
	t.Helper()
	_, err := m.Query(context.Background(),
		"INSERT INTO documents (title, document_type, file_name, file_path, access_level, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		database.AsExec(), database.WithArgs(title, "contract", title+".pdf", path, access, active))
	require.NoError(t, err)
	res, err := m.Query(context.Background(), "SELECT id FROM documents WHERE title = ?", database.WithArgs(title))
	require.NoError(t, err)
	id, err := toInt64(res.Rows[0]["id"])
	require.NoError(t, err)
	return id
}

func TestDocumentDownload(t *testing.T) {
	ctx := context.Background()
	s, m := newStore(t)
	files := &fakeFiles{}

	id := insertDocument(t, m, "contract", "/uploads/contracts/ada.pdf", "internal", true)

	dl, err := s.DocumentDownload(ctx, files, id, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/uploads/contracts/ada.pdf?sig=abc", dl.URL)
	assert.Equal(t, "contract.pdf", dl.FileName)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), dl.ExpiresAt, time.Minute)
	assert.Equal(t, []string{"uploads/contracts/ada.pdf"}, files.keys)

	doc, err := s.GetDocument(ctx, id)
	require.NoError(t, err)
	n, err := toInt64(doc["download_count"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDocumentDownload_Refusals(t *testing.T) {
	ctx := context.Background()
	s, m := newStore(t)

	restricted := insertDocument(t, m, "salaries", "hr/salaries.xlsx", "restricted", true)
	_, err := s.DocumentDownload(ctx, &fakeFiles{}, restricted, time.Minute)
	assert.True(t, errs.IsPermissionDenied(err))

	inactive := insertDocument(t, m, "old", "hr/old.pdf", "internal", false)
	_, err = s.DocumentDownload(ctx, &fakeFiles{}, inactive, time.Minute)
	assert.True(t, errs.IsNotFound(err))

	escaping := insertDocument(t, m, "escape", "../../etc/passwd", "internal", true)
	_, err = s.DocumentDownload(ctx, &fakeFiles{}, escaping, time.Minute)
	assert.True(t, errs.IsInvalidInput(err))

	missing := insertDocument(t, m, "missing", "hr/missing.pdf", "internal", true)
	_, err = s.DocumentDownload(ctx, &fakeFiles{statErr: errs.New(errs.ErrKindNotFound, "no such key")}, missing, time.Minute)
	assert.True(t, errs.IsNotFound(err))

	_, err = s.DocumentDownload(ctx, &fakeFiles{}, 4242, time.Minute)
	assert.True(t, errs.IsNotFound(err))
}
