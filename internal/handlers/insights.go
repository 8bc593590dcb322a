package handlers

import (
	"net/http"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/journal"
)

// Insights serves read-only aggregations over the caller's entries.
type Insights struct {
	svc    *journal.Service
	expose bool
}

func NewInsights(svc *journal.Service, expose bool) *Insights {
	return &Insights{svc: svc, expose: expose}
}

// Mood handles GET /insights/mood: per-day average sentiment between the
// from and to days (inclusive), defaulting to the last 30 days.
func (h *Insights) Mood(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	to := now
	from := now.AddDate(0, 0, -30)
	if t, err := parseDate(r.URL.Query().Get("from")); err == nil {
		from = t
	}
	if t, err := parseDate(r.URL.Query().Get("to")); err == nil {
		to = t
	}
	if from.After(to) {
		from, to = to, from
	}
	toEnd := to.AddDate(0, 0, 1) // the "to" day counts

	points, err := h.svc.MoodTrend(r.Context(), p.ID, from, toEnd)
	if err != nil {
		writeError(w, "mood trend", err, h.expose)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"points": points,
	})
}
