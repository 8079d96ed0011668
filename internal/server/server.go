package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"skidoodle/spotify-activity/internal/activity"
	"skidoodle/spotify-activity/internal/github"

	"github.com/gorilla/websocket"
	"github.com/justinas/alice"
)

const shutdownTimeout = 10 * time.Second

// ActivitySource produces the aggregated listening activity.
type ActivitySource interface {
	Latest(ctx context.Context, limit int) activity.Result
}

// RepositorySource looks up GitHub repository statistics.
type RepositorySource interface {
	Repository(ctx context.Context, fullName string) (*github.Repository, error)
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	DefaultLimit   int
	MaxAge         time.Duration
	// Live enables the websocket feed; LiveLimit and PollInterval apply to it.
	Live         bool
	LiveLimit    int
	PollInterval time.Duration
	Realtime     bool
}

// Server is the main application orchestrator.
type Server struct {
	addr           string
	httpServer     *http.Server
	source         ActivitySource
	repos          RepositorySource
	hub            *Hub
	poller         *Poller
	upgrader       websocket.Upgrader
	allowedOrigins []string
	originChecker  func(string) bool
	defaultLimit   int
	maxAge         time.Duration
}

// NewServer creates a new, fully configured server.
func NewServer(addr string, source ActivitySource, repos RepositorySource, opts Options) *Server {
	allowedOrigins := opts.AllowedOrigins
	originChecker := func(origin string) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		return slices.Contains(allowedOrigins, origin)
	}

	s := &Server{
		addr:           addr,
		source:         source,
		repos:          repos,
		allowedOrigins: allowedOrigins,
		originChecker:  originChecker,
		defaultLimit:   opts.DefaultLimit,
		maxAge:         opts.MaxAge,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originChecker(origin)
		},
	}

	if opts.Live {
		s.hub = NewHub()
		s.poller = NewPoller(source, s.hub, opts.LiveLimit, opts.PollInterval, opts.Realtime)
	}
	return s
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /activity/spotify", s.handleSpotify)
	mux.HandleFunc("GET /github/repos/{owner}/{name}", s.handleRepository)
	if s.hub != nil {
		mux.HandleFunc("GET /activity/spotify/live", s.handleLive)
	}

	return alice.New(requestLogger, recoverer, s.cors).Then(mux)
}

// Run starts the server and its components.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	if s.hub != nil {
		wg.Add(2)

		go func() {
			defer wg.Done()
			s.hub.Run(ctx)
		}()

		go func() {
			defer wg.Done()
			s.poller.Run(ctx)
		}()
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, stopping http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}()

	slog.Info("http server listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	wg.Wait()

	return nil
}
