package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/webscrape/api"
	_ "github.com/raysh454/webscrape/docs/swagger" // registers the swagger doc
	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
)

// maxRequestBodyBytes bounds every request body the server reads.
const maxRequestBodyBytes = 1 << 20

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg          Config
	app          *app.Application
	ownsApp      bool
	scraper      *scraper.Scraper
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a new Server. Unless cfg.App is set it builds its own
// Application from cfg.AppConfig.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.Server.Addr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.With(logging.Field{Key: "component", Value: "server"})

	a, owns := cfg.App, false
	if a == nil {
		var err error
		a, err = app.New(cfg.AppConfig, cfg.Logger)
		if err != nil {
			return nil, err
		}
		owns = true
	}

	s := &Server{
		cfg:          cfg,
		app:          a,
		ownsApp:      owns,
		scraper:      a.Scraper,
		orchestrator: a.Orchestrator,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.logRequest)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "Authorization"},
		MaxAge:               86400,
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	r.Post("/search", s.handleSearch)
	r.Get("/health", s.handleHealth)

	// API documents
	r.Get("/openapi.yaml", s.handleOpenAPIYAML)
	r.Get("/openapi.json", s.handleOpenAPIJSON)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Jobs over REST
	r.Post("/jobs/scrape", s.handleStartScrapeJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSockets for job progress
	r.Get("/ws/jobs/scrape", s.handleScrapeWS)

	r.Get("/cache", s.handleGetCacheEntry)
	r.Delete("/cache", s.handleEvictCacheEntry)

	r.Post("/agent/actions", s.handleAgentAction)
	r.Post("/converse", s.handleConverse)
}

// logRequest logs one line per request, including the body of writes.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := []logging.Field{
			{Key: "method", Value: r.Method},
			{Key: "path", Value: r.URL.Path},
			{Key: "request_id", Value: middleware.GetReqID(r.Context())},
		}

		if q := r.URL.Query(); len(q) > 0 {
			fields = append(fields, logging.Field{Key: "query", Value: q})
		}

		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
			if err != nil {
				s.logger.Warn("http_request", append(fields, logging.Err(err))...)
				// 400 keeps /search inside its 200/400 contract.
				writeError(w, http.StatusBadRequest, "request body too large")
				return
			}
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		s.logger.Info("http_request", fields...)
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close shuts down the Application if the server built it.
func (s *Server) Close() {
	if !s.ownsApp {
		return
	}
	if err := s.app.Shutdown(context.Background()); err != nil {
		s.logger.Warn("application shutdown", logging.Err(err))
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	readTimeout := s.cfg.AppConfig.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeBody decodes exactly one JSON value from the request body.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

// decodeObject decodes a JSON object body into a map of raw fields.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := decodeBody(r, &fields); err != nil || fields == nil {
		return nil, errors.New("request body must be a single JSON object")
	}
	return fields, nil
}

// --- HTTP handlers ---

// handleSearch godoc
// @Summary Scrape content from a URL
// @Description Fetches the page at inputURL and returns its readable text. Every failure is reported as 400.
// @ID scrapeContent
// @Tags scrape
// @Accept json
// @Produce json
// @Param request body ScrapeRequest true "URL to scrape"
// @Success 200 {object} ScrapeResponse
// @Failure 400 {object} ErrorResponse
// @Router /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, ok := fields["inputURL"]
	if !ok {
		writeError(w, http.StatusBadRequest, "inputURL is required")
		return
	}
	var inputURL string
	if err := json.Unmarshal(raw, &inputURL); err != nil {
		writeError(w, http.StatusBadRequest, "inputURL must be a string")
		return
	}
	if strings.TrimSpace(inputURL) == "" {
		writeError(w, http.StatusBadRequest, "inputURL is required")
		return
	}

	res, err := s.scraper.Scrape(r.Context(), inputURL)
	if err != nil {
		s.logger.Warn("scrape failed",
			logging.Field{Key: "url", Value: inputURL},
			logging.Field{Key: "kind", Value: string(scraper.KindOf(err))},
			logging.Err(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("scraped", logging.Field{Key: "url", Value: res.URL}, logging.Field{Key: "source", Value: res.Source})
	writeJSON(w, http.StatusOK, ScrapeResponse{ScrapedContent: res.Content})
}

// handleHealth godoc
// @Summary Liveness probe
// @Tags meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.YAML())
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := api.JSON()
	if err != nil {
		s.logger.Error("rendering openapi document", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
