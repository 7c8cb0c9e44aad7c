package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/cygnusreader/folio/internal/config"
	"github.com/cygnusreader/folio/internal/session"
)

// Server is the HTTP API server for folio.
type Server struct {
	router   chi.Router
	sessions *session.Service
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		log:      log,
		cfg:      cfg,
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
	r.Get("/api/themes", s.handleThemes)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))

		r.Post("/api/documents", s.handleOpen)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Post("/layout", s.handleRelayout)
			r.Get("/pages", s.handleListPages)
			r.Get("/pages/{n}", s.handlePage)
			r.Get("/toc", s.handleToc)
			r.Get("/search", s.handleSearch)
			r.Get("/export", s.handleExport)
			r.Get("/events", s.handleEvents)
		})
		r.Get("/api/stats/pagination", s.handlePaginationStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
