package hr

import (
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

var employeeColumns = []string{
	"id", "employee_id", "user_id", "first_name", "last_name", "email", "phone", "position",
	"department_id", "manager_id", "hire_date", "employment_type", "status", "created_at", "updated_at",
}

var (
	employmentTypes  = []string{"full_time", "part_time", "contract", "intern"}
	employeeStatuses = []string{"active", "inactive", "terminated", "on_leave"}
)

// NewEmployee is the input for CreateEmployee.
type NewEmployee struct {
	EmployeeID     string `json:"employee_id"`
	UserID         *int64 `json:"user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Position       string `json:"position"`
	DepartmentID   *int64 `json:"department_id"`
	ManagerID      *int64 `json:"manager_id"`
	HireDate       string `json:"hire_date"`
	EmploymentType string `json:"employment_type"`
}

// Validate checks required fields and enumerations and fills defaults.
func (e *NewEmployee) Validate() error {
	e.EmployeeID = strings.TrimSpace(e.EmployeeID)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = strings.TrimSpace(e.Email)

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"employee_id", e.EmployeeID},
		{"first_name", e.FirstName},
		{"last_name", e.LastName},
		{"email", e.Email},
		{"hire_date", e.HireDate},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.ErrKindInvalidInput, "missing required fields: "+strings.Join(missing, ", "))
	}

	if _, err := mail.ParseAddress(e.Email); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "email is not a valid address", err)
	}
	if _, err := time.Parse(time.DateOnly, e.HireDate); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "hire_date must be YYYY-MM-DD", err)
	}
	if e.EmploymentType == "" {
		e.EmploymentType = employmentTypes[0]
	}
	if !slices.Contains(employmentTypes, e.EmploymentType) {
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("employment_type must be one of %s", strings.Join(employmentTypes, ", ")))
	}
	return nil
}

// EmployeeFilter narrows ListEmployees.
type EmployeeFilter struct {
	DepartmentID *int64
	Status       string
	Page
}

// ListEmployees returns employees ordered by last and first name.
func (s *Store) ListEmployees(ctx context.Context, f EmployeeFilter) ([]Record, error) {
	page, err := f.Page.normalize()
	if err != nil {
		return nil, err
	}

	b := database.Select("employees", s.dialect()).Columns(employeeColumns...)
	if f.DepartmentID != nil {
		b.Where("department_id", "=", *f.DepartmentID)
	}
	if f.Status != "" {
		if !slices.Contains(employeeStatuses, f.Status) {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("status must be one of %s", strings.Join(employeeStatuses, ", ")))
		}
		b.Where("status", "=", f.Status)
	}
	return s.list(ctx, b.
		OrderBy("last_name", database.Asc).
		OrderBy("first_name", database.Asc).
		Limit(page.Limit).
		Offset(page.Offset))
}

// GetEmployee returns one employee by id.
func (s *Store) GetEmployee(ctx context.Context, id int64) (Record, error) {
	return s.one(ctx, database.Select("employees", s.dialect()).
		Columns(employeeColumns...).
		Where("id", "=", id), "employee", id)
}

// CreateEmployee inserts the employee and an HR notification announcing
// it in one transaction; either both rows exist afterwards or neither.
func (s *Store) CreateEmployee(ctx context.Context, in NewEmployee) (Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	d := s.dialect()
	id, err := database.InTx(ctx, s.db, func(ctx context.Context, q database.Querier) (int64, error) {
		id, err := insertID(ctx, q, d, database.Insert("employees", d).
			Set("employee_id", in.EmployeeID).
			Set("user_id", nullableID(in.UserID)).
			Set("first_name", in.FirstName).
			Set("last_name", in.LastName).
			Set("email", in.Email).
			Set("phone", nullable(in.Phone)).
			Set("position", nullable(in.Position)).
			Set("department_id", nullableID(in.DepartmentID)).
			Set("manager_id", nullableID(in.ManagerID)).
			Set("hire_date", in.HireDate).
			Set("employment_type", in.EmploymentType))
		if err != nil {
			return 0, err
		}

		sql, args, err := database.Insert("notifications", d).
			Set("user_id", nullableID(in.ManagerID)).
			Set("title", "New employee").
			Set("message", fmt.Sprintf("%s %s (%s) joins on %s", in.FirstName, in.LastName, in.EmployeeID, in.HireDate)).
			Set("type", "info").
			Set("category", "hr").
			Set("action_url", fmt.Sprintf("/api/v1/employees/%d", id)).
			Build()
		if err != nil {
			return 0, err
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return 0, err
		}
		return id, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetEmployee(ctx, id)
}
