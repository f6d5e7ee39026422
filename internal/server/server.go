// Package server exposes activity dashboards over HTTP and pushes live
// updates to websocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/classpulse/internal/poller"
	"github.com/gauthierbraillon/classpulse/internal/store"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPollInterval sets the interval of the pollers the hub starts.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		s.interval = d
	}
}

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithAllowedOrigin sets the browser origin allowed to call the API and open
// websockets. "*" allows any origin.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.allowedOrigin = origin
	}
}

// Server serves dashboard snapshots for activities.
type Server struct {
	source        poller.Source
	cache         *store.FeedbackStore
	interval      time.Duration
	now           func() time.Time
	logger        *slog.Logger
	allowedOrigin string
	upgrader      websocket.Upgrader
	hub           *Hub
}

// New creates a server reading activities from source and caching merged
// reactions in cache.
func New(source poller.Source, cache *store.FeedbackStore, opts ...Option) *Server {
	s := &Server{
		source:   source,
		cache:    cache,
		interval: poller.DefaultInterval,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = newUpgrader(s.allowedOrigin)
	s.hub = NewHub(s.newPoller, s.now, s.logger)
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) newPoller(activityID string, onChange func(poller.State)) *poller.Poller {
	opts := []poller.Option{
		poller.WithInterval(s.interval),
		poller.WithClock(s.now),
		poller.WithLogger(s.logger.With("activity", activityID)),
	}
	if onChange != nil {
		opts = append(opts, poller.WithOnChange(onChange))
	}
	return poller.New(activityID, s.source, s.cache, opts...)
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/activities/{id}/dashboard", s.handleDashboard)
	r.Get("/ws/activities/{id}", s.handleWebSocket)

	return r
}

// handleDashboard returns the current snapshot. A running poller is reused;
// otherwise the activity is fetched once.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	activityID := chi.URLParam(r, "id")

	var st poller.State
	if p, ok := s.hub.Poller(activityID); ok {
		st = p.State()
	} else {
		p := s.newPoller(activityID, nil)
		st = p.Refresh(r.Context())
		p.Stop()
	}

	writeJSON(w, http.StatusOK, st.Snapshot(s.now()))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	activityID := chi.URLParam(r, "id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "activity", activityID, "error", err)
		return
	}

	id, c, p := s.hub.register(activityID, conn)

	if data, err := json.Marshal(p.State().Snapshot(s.now())); err == nil {
		if err := c.send(data); err != nil {
			s.hub.unregister(activityID, id)
			return
		}
	}

	go func() {
		defer s.hub.unregister(activityID, id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("dashboard server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (s.allowedOrigin == "*" || origin == s.allowedOrigin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
