package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// Server wraps http.Server with context-driven graceful shutdown.
type Server struct {
	cfg     Config
	log     *slog.Logger
	onStart func(addr string)

	mu  sync.Mutex
	srv *http.Server
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStartHook runs fn with the bound address once the listener is open.
func WithStartHook(fn func(addr string)) Option {
	return func(s *Server) { s.onStart = fn }
}

// New returns a server for cfg.
func New(cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler until ctx is cancelled, then drains open connections
// for at most ShutdownTimeout. Callers own signal handling.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.srv = srv
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}

	addr := ln.Addr().String()
	s.log.InfoContext(ctx, "http server started", slog.String("addr", addr))
	if s.onStart != nil {
		s.onStart(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.ErrorContext(ctx, "http server shutdown failed", logger.Error(err))
		return errors.Join(ErrShutdown, err)
	}
	<-errCh

	s.log.InfoContext(ctx, "http server stopped")
	return nil
}
