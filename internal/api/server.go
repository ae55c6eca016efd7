package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mlarcher/pageproof/internal/config"
	"github.com/mlarcher/pageproof/internal/pipeline"
	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// Server is the HTTP API server for pageproof.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	composer     *stylesheet.Composer
	renderStats  *render.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, composer *stylesheet.Composer, stats *render.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		composer:     composer,
		renderStats:  stats,
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

		r.Post("/api/generate", s.handleGenerate)
		r.Get("/api/generate/{jobID}/status", s.handleGenerateStatus)
		r.Get("/api/generate/{jobID}/result", s.handleGenerateResult)

		r.Post("/api/preview/css", s.handlePreviewCSS)
		r.Get("/api/templates", s.handleListTemplates)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
