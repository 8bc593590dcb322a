// Package routes mounts the HTTP surface onto a chi router. Which
// handler serves which path lives here and nowhere else.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack-app/lifetrack-backend/internal/handlers"
	"github.com/lifetrack-app/lifetrack-backend/internal/middleware"
)

// Deps carries the wired handlers. Metrics may be nil, which leaves
// /metrics unmounted (telemetry disabled).
type Deps struct {
	Journal  *handlers.Journal
	Insights *handlers.Insights
	Auth     *handlers.Auth
	Events   *handlers.Events
	Health   *handlers.Health
	Tokens   *middleware.Authenticator
	Metrics  http.Handler
}

// SetupRoutes registers every route. /health, /metrics, and the signup
// and signin endpoints are public; everything else requires a valid
// bearer token.
func SetupRoutes(r *chi.Mux, d Deps) {
	r.Get("/health", d.Health.Check)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Post("/auth/signup", d.Auth.Signup)
	r.Post("/auth/signin", d.Auth.Signin)

	r.Group(func(r chi.Router) {
		r.Use(d.Tokens.RequireAuth)

		r.Get("/auth/me", d.Auth.Me)

		// Journal entry CRUD and search.
		r.Post("/journals", d.Journal.Create)
		r.Get("/journals", d.Journal.List)
		r.Get("/journals/search", d.Journal.Search)
		r.Get("/journals/{id}", d.Journal.Get)
		r.Put("/journals/{id}", d.Journal.Update)
		r.Delete("/journals/{id}", d.Journal.Delete)

		// Attachments.
		r.Post("/journals/{id}/attachments", d.Journal.Attach)
		r.Delete("/journals/{id}/attachments/{attachmentID}", d.Journal.Detach)

		// Aggregations.
		r.Get("/insights/mood", d.Insights.Mood)

		// WebSocket live feed of the caller's own entry events.
		r.Get("/ws/journal", d.Events.Stream)
	})
}
