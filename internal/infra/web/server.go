package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/application"
	"jdcrawler-dashboard/internal/infra/logging"
)

// Server exposes the dashboard's screens as JSON under /ui, a change feed
// at /ui/events, and the operational endpoints.
type Server struct {
	dash      *application.Dashboard
	port      int
	timeout   time.Duration
	heartbeat time.Duration
	server    *http.Server
	log       *zerolog.Logger
}

func NewServer(dash *application.Dashboard, port int, timeout time.Duration, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := logger.With().Str("component", "web.Server").Logger()
	return &Server{dash: dash, port: port, timeout: timeout, heartbeat: 15 * time.Second, log: &l}
}

// Router builds the chi routes. Every /ui route except the event stream
// runs under the request timeout.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID, Recover(s.log), RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/ui", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.timeout))
			s.routes(r)
		})
	})
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/dashboard", s.handleDashboard)

	r.Get("/jobs", s.handleJobs)
	r.Post("/jobs/search", s.handleSearch)
	r.Post("/jobs/site", s.handleFilter)
	r.Post("/jobs/page", s.handlePage)
	r.Get("/jobs/{id}", s.handleJobDetail)
	r.Delete("/jobs/{id}", s.handleCloseDetail)
	r.Post("/jobs/{id}/bookmark", s.handleBookmark)
	r.Post("/jobs/{id}/hide", s.handleHide)
	r.Post("/jobs/{id}/analysis", s.handleAnalysis)

	r.Get("/keywords", s.handleKeywords)
	r.Post("/keywords", s.handleAddKeyword)
	r.Delete("/keywords/{id}", s.handleRemoveKeyword)

	r.Post("/crawl", s.handleCrawl)
	r.Post("/crawl/all", s.handleCrawlAll)

	r.Get("/profile", s.handleProfile)
	r.Put("/profile", s.handleSaveProfile)

	r.Post("/notifications/read", s.handleMarkRead)
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.port).Msg("view server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) logFor(r *http.Request) *zerolog.Logger {
	return logging.With(r.Context(), s.log)
}
