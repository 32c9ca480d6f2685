// Package server exposes the dashboard over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const logModule = "server"

const maxRequestBodySize = 1 << 20 // 1MB

const shutdownTimeout = 5 * time.Second

// Dashboard is the controller surface the API reads and drives.
type Dashboard interface {
	Snapshot() *source.Snapshot
	Refresh(ctx context.Context) (*source.Snapshot, error)
	ApplyExternalUpdate(payload source.UpdatePayload) (*source.Snapshot, error)
	State() source.State
	LastError() error
	SourceRef() string
}

// Chat is the update channel surface behind /api/chat.
type Chat interface {
	Send(ctx context.Context, text string) (chat.Message, error)
	Log() []chat.Message
}

// Deps are the collaborators of the API handler. Chat is optional; the chat
// routes are not mounted without it.
type Deps struct {
	Dashboard Dashboard
	Chat      Chat
	PageSize  int
	Token     string
	Logger    logger.Logger
}

// NewHandler returns the http.Handler serving the dashboard API.
func NewHandler(deps Deps) http.Handler {
	if deps.PageSize <= 0 {
		deps.PageSize = 10
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	r := chi.NewRouter()
	r.Use(requestLog(deps.Logger))
	if deps.Token != "" {
		r.Use(BearerAuth(deps.Token))
	}

	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", handleState(deps))
		r.Get("/records", handleRecords(deps))
		r.Get("/metrics", handleMetrics(deps))
		r.Get("/status", handleStatus(deps))
		r.Get("/revenue", handleRevenue(deps))
		r.Post("/refresh", handleRefresh(deps))
		r.Post("/update", handleUpdate(deps))
		if deps.Chat != nil {
			r.Get("/chat", handleChatLog(deps))
			r.Post("/chat", handleChatSend(deps))
		}
	})

	return r
}

// Server runs the API handler on a TCP address until its context ends.
type Server struct {
	srv *http.Server
	log logger.Logger
}

// New creates a Server listening on addr.
func New(addr string, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. ready, if non-nil, receives the bound address
// once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	addr := ln.Addr().String()
	s.log.Info(logModule, "listening", map[string]any{"addr": addr})
	if ready != nil {
		ready(addr)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(logModule, "shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}

func requestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug(logModule, "request", map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			})
		})
	}
}
