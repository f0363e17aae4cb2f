package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/papertrans/internal/config"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/pipeline"
)

// maxTextBytes bounds JSON bodies of the text analysis endpoints.
const maxTextBytes = 8 << 20

// Server is the HTTP API server for papertrans.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *llm.LLMStats
	validate     *validator.Validate
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, stats *llm.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

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

		r.Post("/api/segment", s.handleSegment)
		r.Post("/api/sections", s.handleSections)
		r.Post("/api/chunks", s.handleChunks)
		r.Post("/api/check", s.handleCheck)
		r.Post("/api/breaks", s.handleBreaks)

		r.Post("/api/translate", s.handleTranslate)
		r.Get("/api/translate/{jobID}/status", s.handleTranslateStatus)
		r.Get("/api/translate/{jobID}/result", s.handleTranslateResult)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
