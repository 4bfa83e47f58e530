package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/xtding233/binomial-theory/internal/config"
	"github.com/xtding233/binomial-theory/internal/host"
	"github.com/xtding233/binomial-theory/internal/sim"
	"github.com/xtding233/binomial-theory/internal/store"
	"github.com/xtding233/binomial-theory/internal/theory"
)

// Error types
const (
	ErrTypeValidation  = "VALIDATION_ERROR"
	ErrTypeNotFound    = "NOT_FOUND"
	ErrTypeLimit       = "LIMIT_EXCEEDED"
	ErrTypeUnavailable = "UNAVAILABLE"
	ErrTypeInternal    = "SERVER_ERROR"
)

var (
	errSessionNotFound = errors.New("session not found")
	errNoStore         = errors.New("save store is not configured")
	errBadRequest      = errors.New("bad request")
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// fail maps err onto a status and error type.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, typ := http.StatusInternalServerError, ErrTypeInternal
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, host.ErrUnknownUpgrade),
		errors.Is(err, host.ErrUnknownMilestone):
		status, typ = http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, errBadRequest):
		status, typ = http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, host.ErrLevelOutOfRange),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, theory.ErrInvalidConfig),
		errors.Is(err, sim.ErrInvalidParams):
		status, typ = http.StatusUnprocessableEntity, ErrTypeValidation
	case errors.Is(err, errTooManySessions):
		status, typ = http.StatusTooManyRequests, ErrTypeLimit
	case errors.Is(err, errNoStore),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		status, typ = http.StatusServiceUnavailable, ErrTypeUnavailable
	}
	reqID := middleware.GetReqID(r.Context())
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", reqID, "error", err)
	}
	writeJSON(w, status, APIError{Type: typ, Message: err.Error(), RequestID: reqID})
}
