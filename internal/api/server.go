package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/parley/internal/processor"
	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

const maxRequestBodySize = 1 << 20

// Service is the processor surface the API drives.
type Service interface {
	Status() processor.Mode
	StartSession(ctx context.Context) (session.Live, error)
	StopSession(ctx context.Context) (session.Result, error)
	Live() (session.Live, error)
	Candidates() []resolver.Candidate
	Ingest(evt utterance.Event) error
	StartRegistration() (processor.RegistrationStatus, error)
	StopRegistration(ctx context.Context) (profile.Pattern, error)
	Registration(ctx context.Context) (processor.RegistrationStatus, error)
	ClearRegistration(ctx context.Context) error
	RecentSummaries(ctx context.Context, limit int) ([]session.Result, error)
}

type Server struct {
	router *chi.Mux
	port   int
	svc    Service
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, apiToken string, svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		svc:    svc,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/parley/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions/live", s.liveSession)
		r.Get("/registration", s.getRegistration)
		r.Get("/summaries", s.listSummaries)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Post("/sessions", s.startSession)
			r.Post("/sessions/stop", s.stopSession)
			r.Post("/utterances", s.ingestUtterance)
			r.Post("/registration", s.startRegistration)
			r.Post("/registration/stop", s.stopRegistration)
			r.Delete("/registration", s.clearRegistration)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "parley",
		"status": string(s.svc.Status()),
	})
}
