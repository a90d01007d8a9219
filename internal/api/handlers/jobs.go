package handlers

import (
	"net/http"

	"github.com/wonny/stockpick/internal/scheduler"
)

// JobStatsSource exposes scheduler statistics (scheduler.Scheduler)
type JobStatsSource interface {
	GetJobStats() map[string]scheduler.JobStats
}

// JobsHandler reports scheduled job history
type JobsHandler struct {
	source JobStatsSource
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(source JobStatsSource) *JobsHandler {
	return &JobsHandler{source: source}
}

// GetJobs returns per-job run statistics
// GET /api/v1/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.source.GetJobStats())
}
