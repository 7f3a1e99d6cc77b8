package http

import (
	"net/http"

	"github.com/atinyakov/valentine/internal/metrics"
	"github.com/atinyakov/valentine/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// greeting API.
//
// Routes:
//
//	POST   /api/greetings             → h.Create
//	GET    /api/greetings             → h.List
//	DELETE /api/greetings             → h.Clear
//	GET    /api/greetings/{id}        → h.View
//	GET    /api/greetings/{id}/export → h.Export
//	DELETE /api/greetings/{id}        → h.Delete
//	GET    /healthz                   → h.Health
//	GET    /metrics                   → Prometheus, when m is not nil
//
// Any other path gets h.NotFound. Only POST bodies are content-type
// checked (JSON or multipart).
func NewRouter(h *GreetingHandler, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	if m != nil {
		r.Use(middleware.WithMetrics(m))
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", h.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/greetings", func(r chi.Router) {
		r.With(chiMiddleware.AllowContentType("application/json", "multipart/form-data")).
			Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/", h.Clear)

		r.Get("/{id}", h.View)
		r.Get("/{id}/export", h.Export)
		r.Delete("/{id}", h.Delete)
	})

	return r
}
