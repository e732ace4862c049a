// Package api exposes the job manager over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"splitrender/jobs"
)

// NewRouter builds the job control routes.
func NewRouter(mgr *jobs.Manager, logger zerolog.Logger) http.Handler {
	app := &App{Jobs: mgr, Logger: logger.With().Str("component", "api").Logger()}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(app.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", app.HealthHandler)
	r.Get("/stats", app.StatsHandler)
	r.Handle("/metrics", mgr.Metrics().Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", app.CreateJobHandler)
		r.Get("/", app.ListJobsHandler)
		r.Get("/{jobID}", app.GetJobHandler)
		r.Delete("/{jobID}", app.DeleteJobHandler)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
