package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"splitrender/autoconfig"
	"splitrender/jobs"
	"splitrender/metrics"
)

type App struct {
	Jobs   *jobs.Manager
	Logger zerolog.Logger
}

// StatsResponse is the /stats payload.
type StatsResponse struct {
	metrics.Snapshot
	CPUCount          int                  `json:"cpu_count"`
	Variants          []autoconfig.Variant `json:"variants"`
	ContentAwareReady bool                 `json:"v2_available"`
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"v2_available": app.contentAwareReady(),
	})
}

func (app *App) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Snapshot:          app.Jobs.Metrics().Snapshot(),
		CPUCount:          runtime.NumCPU(),
		Variants:          app.Jobs.Configurators().Available(),
		ContentAwareReady: app.contentAwareReady(),
	})
}

func (app *App) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var req jobs.SubmitRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	job, err := app.Jobs.Submit(req)
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		app.Logger.Error().Err(err).Msg("submit failed")
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (app *App) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Jobs.List())
}

func (app *App) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := app.Jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (app *App) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Jobs.Delete(chi.URLParam(r, "jobID")); err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}

func (app *App) contentAwareReady() bool {
	_, _, err := app.Jobs.Configurators().Select(string(autoconfig.VariantContentAware))
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
