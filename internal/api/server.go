package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Sanchay-T/NER/internal/config"
	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/pipeline"
)

// Server is the HTTP API for submitting statement batches and polling
// their results.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.BatchOrchestrator
	runs         *RunStore
	stats        *extract.CallStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when the
// local backend is active; the stats endpoint then reports unavailable.
func NewServer(orch *pipeline.BatchOrchestrator, stats *extract.CallStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		runs:         NewRunStore(cfg.RunTTL),
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Runs exposes the run registry so the main loop can schedule TTL cleanup.
func (s *Server) Runs() *RunStore { return s.runs }

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/batch", s.handleStartBatch)
		r.Get("/api/batch/{runID}", s.handleRunStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
