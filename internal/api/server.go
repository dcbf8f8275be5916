package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reoring/qschema/internal/config"
	qmw "github.com/reoring/qschema/middleware"
)

// Server is the HTTP front end of the questionnaire validator.
type Server struct {
	router chi.Router
	log    *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(log *slog.Logger, cfg config.Config) *Server {
	s := &Server{log: log, cfg: cfg, now: time.Now}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(qmw.RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/validate", s.handleValidate)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
