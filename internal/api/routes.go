package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunar-almanac/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/lunar/today
//	GET    /api/v1/lunar/date/{date}
//	GET    /api/v1/lunar/convert?year=&month=&day=
//	GET    /api/v1/almanac/today
//	GET    /api/v1/almanac/date/{date}
//	GET    /api/v1/almanac/range?start=&end=
//	GET    /api/v1/records?category=&deity=&q=&since=&until=&favorites=&limit=&offset=
//	GET    /api/v1/records/stats
//	GET    /api/v1/records/export
//	GET    /api/v1/records/{id}
//	POST   /api/v1/records                (API key)
//	DELETE /api/v1/records                (API key)
//	PATCH  /api/v1/records/{id}           (API key)
//	DELETE /api/v1/records/{id}           (API key)
//	POST   /api/v1/records/{id}/favorite  (API key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// ======================================================================
		// Calendar routes (public)
		// ======================================================================
		r.Route("/lunar", func(r chi.Router) {
			r.Get("/today", handlers.GetLunarToday)
			r.Get("/date/{date}", handlers.GetLunarDate)
			r.Get("/convert", handlers.ConvertLunar)
		})

		r.Route("/almanac", func(r chi.Router) {
			r.Get("/today", handlers.GetAlmanacToday)
			r.Get("/date/{date}", handlers.GetAlmanacDate)
			r.Get("/range", handlers.GetAlmanacRange)
		})

		// ======================================================================
		// Prayer records (reads public, writes need the API key)
		// ======================================================================
		r.Route("/records", func(r chi.Router) {
			r.Get("/", handlers.ListRecords)
			r.Get("/stats", handlers.GetRecordStats)
			r.Get("/export", handlers.ExportRecords)
			r.Get("/{id}", handlers.GetRecord)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(cfg, logger))
				r.Post("/", handlers.CreateRecord)
				r.Delete("/", handlers.ClearRecords)
				r.Patch("/{id}", handlers.UpdateRecord)
				r.Delete("/{id}", handlers.DeleteRecord)
				r.Post("/{id}/favorite", handlers.ToggleFavorite)
			})
		})
	})

	return r
}
