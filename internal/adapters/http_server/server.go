package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type Options struct {
	// Timeout bounds a whole request; LLM-backed steps need minutes, not seconds.
	Timeout time.Duration
	// Workers caps pipeline actions running at once across all sessions.
	Workers int
}

type Server struct {
	mux *chi.Mux
	sem *semaphore.Weighted
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	m := chi.NewRouter()

	// RealIP first so access logs carry the client address
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(opts.Timeout))
	m.Use(Observe(log.Logger))

	return &Server{mux: m, sem: semaphore.NewWeighted(int64(opts.Workers))}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
