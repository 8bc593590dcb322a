// Package handlers exposes the HTTP surface. Handlers hold their
// dependencies as struct fields, decode and validate requests, call the
// service layer, and map its error taxonomy onto status codes. Success
// bodies are the bare resources; failures are {"error": message}.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/middleware"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the error taxonomy onto HTTP statuses. Causes of 500s
// are logged under op and stay out of responses unless expose is set
// (non-production).
func writeError(w http.ResponseWriter, op string, err error, expose bool) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		msg := "internal error"
		if expose {
			msg += ": " + err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(msg))
		return
	}
	writeJSON(w, status, errorBody(apperr.Message(err)))
}

// principal returns the authenticated identity, writing a 401 when the
// middleware did not attach one.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("authentication required"))
	}
	return p, ok
}
