package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/hr"
)

const maxBodyBytes = 1 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "TalentTrack Backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Server) apiInfo(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "TalentTrack API v1",
		"status":    "active",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// status reports the connection state without triggering authentication.
func (s *Server) status(w http.ResponseWriter, _ *http.Request) error {
	st := s.db.Status()
	db := "disconnected"
	if st.IsConnected {
		db = "connected"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "OK",
		"database":   db,
		"version":    s.version,
		"connection": st,
	})
	return nil
}

func (s *Server) notFound(_ http.ResponseWriter, r *http.Request) error {
	return errs.New(errs.ErrKindNotFound, fmt.Sprintf("Route %s not found", r.URL.RequestURI()))
}

func (s *Server) methodNotAllowed(_ http.ResponseWriter, r *http.Request) error {
	return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) error {
	page, err := pageParams(r)
	if err != nil {
		return err
	}
	rows, err := s.store.ListDepartments(r.Context(), page)
	if err != nil {
		return err
	}
	okList(w, rows)
	return nil
}

func (s *Server) getDepartment(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}
	row, err := s.store.GetDepartment(r.Context(), id)
	if err != nil {
		return err
	}
	ok(w, http.StatusOK, row)
	return nil
}

func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) error {
	var in hr.NewDepartment
	if err := decodeBody(w, r, &in); err != nil {
		return err
	}
	row, err := s.store.CreateDepartment(r.Context(), in)
	if err != nil {
		return err
	}
	ok(w, http.StatusCreated, row)
	return nil
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) error {
	page, err := pageParams(r)
	if err != nil {
		return err
	}
	f := hr.EmployeeFilter{Status: r.URL.Query().Get("status"), Page: page}
	if v := r.URL.Query().Get("department_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "department_id must be an integer", err)
		}
		f.DepartmentID = &id
	}

	rows, err := s.store.ListEmployees(r.Context(), f)
	if err != nil {
		return err
	}
	okList(w, rows)
	return nil
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}
	row, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		return err
	}
	ok(w, http.StatusOK, row)
	return nil
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) error {
	var in hr.NewEmployee
	if err := decodeBody(w, r, &in); err != nil {
		return err
	}
	row, err := s.store.CreateEmployee(r.Context(), in)
	if err != nil {
		return err
	}
	ok(w, http.StatusCreated, row)
	return nil
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r)
	if err != nil {
		return err
	}
	row, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		return err
	}
	ok(w, http.StatusOK, row)
	return nil
}

func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) error {
	if s.files == nil {
		return errs.New(errs.ErrKindConnection, "document storage is not configured")
	}
	id, err := idParam(r)
	if err != nil {
		return err
	}
	dl, err := s.store.DocumentDownload(r.Context(), s.files, id, s.presignTTL)
	if err != nil {
		return err
	}
	ok(w, http.StatusOK, dl)
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func pageParams(r *http.Request) (hr.Page, error) {
	var p hr.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errs.Wrap(errs.ErrKindInvalidInput, name+" must be an integer", err)
		}
		*dst = n
	}
	return p, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.Wrap(errs.ErrKindInvalidInput, "request body too large", err)
		case errors.Is(err, io.EOF):
			return errs.Wrap(errs.ErrKindInvalidInput, "request body is empty", err)
		default:
			return errs.Wrap(errs.ErrKindInvalidInput, "request body is not valid JSON", err)
		}
	}
	return nil
}
