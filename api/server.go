/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Access log through the service logger
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the planning frontend

ROUTE GROUPS:
  /api/position-finder/*  Position search
  /api/grade-values/*     Grade table
  /api/positions/*        Position catalog and import
  /api/scenarios/*        Demo scenarios
  /healthz                Liveness probe
  /metrics                Prometheus (path configurable, optional)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/staffplan/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the router.
type RouterOptions struct {
	CORSOrigins []string
	MetricsPath string // empty = no metrics route
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: h.log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/position-finder/search", h.SearchPositions)

		r.Route("/grade-values", func(r chi.Router) {
			r.Get("/", h.ListGradeValues)
			r.Post("/", h.CreateGradeValue)
			r.Get("/in-use", h.GradesInUse)
			r.Get("/{id}", h.GetGradeValue)
			r.Put("/{id}", h.UpdateGradeValue)
			r.Delete("/{id}", h.DeleteGradeValue)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", h.ListPositions)
			r.Delete("/", h.DeletePositions)
			r.Get("/relevance-types", h.RelevanceTypes)
			r.Post("/import", h.ImportPositions)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
