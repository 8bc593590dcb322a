package handlers

import (
	"net/http"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/config"
)

// Health reports liveness plus the startup-resolved mode of every
// backing service, so an operator can tell at a glance which adapters
// run live and which fell back to in-memory.
type Health struct {
	modes config.Modes
}

func NewHealth(modes config.Modes) *Health {
	return &Health{modes: modes}
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Services  config.Modes `json:"services"`
}

// Check handles GET /health. Always 200: a process that can answer is
// alive, and the modes say what it is running against.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  h.modes,
	})
}
