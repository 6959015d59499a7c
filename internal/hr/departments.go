package hr

import (
	"context"
	"strings"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
)

var departmentColumns = []string{
	"id", "name", "description", "manager_id", "budget", "location", "is_active", "created_at", "updated_at",
}

// NewDepartment is the input for CreateDepartment.
type NewDepartment struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ManagerID   *int64   `json:"manager_id"`
	Budget      *float64 `json:"budget"`
	Location    string   `json:"location"`
}

// Validate checks the required fields.
func (d *NewDepartment) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "department name is required")
	}
	if len(d.Name) > 100 {
		return errs.New(errs.ErrKindInvalidInput, "department name must be at most 100 characters")
	}
	if d.Budget != nil && *d.Budget < 0 {
		return errs.New(errs.ErrKindInvalidInput, "department budget must not be negative")
	}
	return nil
}

// ListDepartments returns active departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context, page Page) ([]Record, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, database.Select("departments", s.dialect()).
		Columns(departmentColumns...).
		Where("is_active", "=", true).
		OrderBy("name", database.Asc).
		Limit(page.Limit).
		Offset(page.Offset))
}

// GetDepartment returns one department by id.
func (s *Store) GetDepartment(ctx context.Context, id int64) (Record, error) {
	return s.one(ctx, database.Select("departments", s.dialect()).
		Columns(departmentColumns...).
		Where("id", "=", id), "department", id)
}

// CreateDepartment inserts a department and returns the stored row.
func (s *Store) CreateDepartment(ctx context.Context, in NewDepartment) (Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	d := s.dialect()
	var budget any
	if in.Budget != nil {
		budget = *in.Budget
	}
	id, err := database.InTx(ctx, s.db, func(ctx context.Context, q database.Querier) (int64, error) {
		return insertID(ctx, q, d, database.Insert("departments", d).
			Set("name", in.Name).
			Set("description", nullable(in.Description)).
			Set("manager_id", nullableID(in.ManagerID)).
			Set("budget", budget).
			Set("location", nullable(in.Location)))
	})
	if err != nil {
		return nil, err
	}
	return s.GetDepartment(ctx, id)
}
