package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/logger"
)

// handlerFunc is an http.HandlerFunc that reports failure by returning it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Count   *int `json:"count,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func okList[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

// statusOf maps an error kind onto an HTTP status and a client error code.
func statusOf(kind errs.ErrKind) (int, string) {
	switch {
	case kind == errs.ErrKindNotFound:
		return http.StatusNotFound, "NOT_FOUND_ERROR"
	case kind == errs.ErrKindInvalidInput:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case kind == errs.ErrKindPermissionDenied:
		return http.StatusForbidden, "AUTHORIZATION_ERROR"
	case kind == errs.ErrKindTimeout:
		return http.StatusGatewayTimeout, "TIMEOUT_ERROR"
	case kind.IsConnectionKind():
		return http.StatusServiceUnavailable, "DATABASE_ERROR"
	case kind == errs.ErrKindSync, kind == errs.ErrKindQuery, kind == errs.ErrKindTransaction:
		return http.StatusInternalServerError, "DATABASE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

// writeError records err in the error log and renders it.
// Unclassified errors keep their message private outside development.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	id := s.errlog.LogOnce(r.Context(), err)

	kind := errs.KindOf(err)
	status, code := statusOf(kind)

	body := errorBody{Code: code, ID: id}
	var typed *errs.Error
	switch {
	case errors.As(err, &typed) && kind != errs.ErrKindUnknown:
		body.Message = typed.Message
	case s.dev:
		body.Message = err.Error()
	default:
		body.Message = "Internal server error"
	}
	if s.dev {
		body.Kind = kind.String()
		if typed != nil && typed.Cause != nil {
			body.Cause = typed.Cause.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorWith("request failed", err, map[string]any{"error_id": id})
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}
