package server

import (
	"errors"
	"net/http"

	"github.com/raysh454/webscrape/internal/agent"
	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/llm"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
)

// Cache

func cacheErrorStatus(err error) int {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scraper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrCacheDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleGetCacheEntry godoc
// @Summary Read the cached scrape of a URL
// @Tags cache
// @Produce json
// @Param url query string true "URL as given to /search"
// @Success 200 {object} cache.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /cache [get]
func (s *Server) handleGetCacheEntry(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	entry, err := s.scraper.CachedEntry(r.Context(), u)
	if err != nil {
		status := cacheErrorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("reading cache entry", logging.Field{Key: "url", Value: u}, logging.Err(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleEvictCacheEntry godoc
// @Summary Evict a URL from the cache
// @Tags cache
// @Param url query string true "URL as given to /search"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /cache [delete]
func (s *Server) handleEvictCacheEntry(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if err := s.scraper.Evict(r.Context(), u); err != nil {
		writeError(w, cacheErrorStatus(err), err.Error())
		return
	}
	s.logger.Info("evicted cache entry", logging.Field{Key: "url", Value: u})
	writeJSON(w, http.StatusNoContent, nil)
}

// Agent actions

// handleAgentAction godoc
// @Summary Handle a Bedrock agent action group event
// @Description The action's own status travels inside the envelope; the HTTP status is 200 for any well-formed event.
// @Tags agent
// @Accept json
// @Produce json
// @Param event body agent.ActionEvent true "Action group event"
// @Success 200 {object} agent.ActionResponse
// @Failure 400 {object} ErrorResponse
// @Router /agent/actions [post]
func (s *Server) handleAgentAction(w http.ResponseWriter, r *http.Request) {
	var ev agent.ActionEvent
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, s.app.Agent.Handle(r.Context(), &ev))
}

// Inference

// handleConverse godoc
// @Summary Run one model inference call
// @Tags inference
// @Accept json
// @Produce json
// @Param request body llm.ConverseRequest true "Conversation and inference settings"
// @Success 200 {object} llm.ConverseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /converse [post]
func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	if s.app.LLM == nil {
		writeError(w, http.StatusServiceUnavailable, llm.ErrNotConfigured.Error())
		return
	}
	var req llm.ConverseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := s.app.LLM.Converse(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, llm.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("converse failed", logging.Err(err))
		writeError(w, http.StatusBadGateway, llm.ErrUpstream.Error())
	}
}
