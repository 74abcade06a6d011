package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/logging"
)

// Jobs (REST)

// handleStartScrapeJob godoc
// @Summary Start a batch scrape job
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body StartScrapeJobRequest true "URLs to scrape"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /jobs/scrape [post]
func (s *Server) handleStartScrapeJob(w http.ResponseWriter, r *http.Request) {
	var body StartScrapeJobRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// The job outlives this request.
	job, err := s.orchestrator.StartScrapeJob(context.WithoutCancel(r.Context()), body.URLs, body.Concurrency)
	if err != nil {
		s.logger.Warn("starting scrape job", logging.Err(err))
		writeError(w, jobErrorStatus(err), err.Error())
		return
	}
	s.logger.Info("started scrape job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "urls", Value: job.Total})
	writeJSON(w, http.StatusAccepted, job)
}

func jobErrorStatus(err error) int {
	if errors.Is(err, app.ErrOrchestratorClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// handleGetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.logger.Info("got job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	running := s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID}, logging.Field{Key: "was_running", Value: running})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleListJobs godoc
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Info("listed jobs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

// handleScrapeWS starts a scrape job for the repeated url query parameter and
// streams the job followed by its events. Closing the socket cancels the job.
func (s *Server) handleScrapeWS(w http.ResponseWriter, r *http.Request) {
	urls := r.URL.Query()["url"]
	concurrency := 0
	if cs := r.URL.Query().Get("concurrency"); cs != "" {
		if v, err := strconv.Atoi(cs); err == nil && v > 0 {
			concurrency = v
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartScrapeJob(r.Context(), urls, concurrency)
	if err != nil {
		s.logger.Warn("starting scrape job", logging.Err(err))
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scrape job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}
