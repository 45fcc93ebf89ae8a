package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/camden-git/wallpapersync/database"
	"github.com/go-chi/chi/v5"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunsHandler exposes the run journal. DB is nil when the journal is disabled.
type RunsHandler struct {
	DB *sql.DB
}

type RunDetail struct {
	database.Run
	Batches []database.BatchEvent `json:"batches"`
}

func (h *RunsHandler) available(w http.ResponseWriter) bool {
	if h.DB == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, CodeUnavailable, "Run journal is disabled (JOURNAL_PATH is empty)")
		return false
	}
	return true
}

// ListRuns handles GET /api/runs?limit=N
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := database.ListRecentRuns(h.DB, limit)
	if err != nil {
		log.Printf("handlers.runs: Error listing runs: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /api/runs/{run_id}; the response includes batch events
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	runID := chi.URLParam(r, "run_id")

	run, err := database.GetRun(h.DB, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Run not found")
			return
		}
		log.Printf("handlers.runs: Error fetching run %s: %v", runID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to fetch run")
		return
	}

	events, err := database.ListBatchEvents(h.DB, runID)
	if err != nil {
		log.Printf("handlers.runs: Error listing batches for run %s: %v", runID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to list batch events")
		return
	}
	writeJSON(w, http.StatusOK, RunDetail{Run: run, Batches: events})
}
