/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, attached to log records
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Instrument: Prometheus latency by route pattern
  5. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/records/*     Raw row submission, uploads, stored runs
  /api/reports/*     Institution, yearly, monthly reports and export
  /api/scenarios/*   Demo datasets
  /api/reset         Database reset (dev only)
  /metrics           Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecords)
			r.Post("/import", h.ImportRecords)
			r.Get("/{id}", h.GetRecord)
			r.Delete("/{id}", h.DeleteRecord)
		})
		r.Get("/imports", h.ListImports)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/institutions", h.InstitutionReport)
			r.Get("/institutions/{name}/courses", h.InstitutionCourses)
			r.Get("/yearly", h.YearlyReport)
			r.Get("/monthly", h.MonthlyReport)
			r.Get("/export.xlsx", h.ExportReport)
		})

		r.Get("/health-check", h.HealthCheck)
		r.Get("/institutions/groups", h.GroupTable)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
		r.Post("/reset", h.ResetDatabase)
	})

	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
