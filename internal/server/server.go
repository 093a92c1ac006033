// internal/server/server.go
//
// Lifecycle controller.
//
// Context
// -------
// A Server owns one HTTP service for one Registry.  Its lifecycle is
// Created → Started → Stopped and never goes backwards:
//
//	srv, _ := server.New(cfg, reg, eng)
//	go func() { <-sigs; srv.Stop() }()
//	err := srv.Start(ctx)   // blocks until stopped
//
// Start boots the render engine, builds the router (global middleware,
// Basic Auth, discovery endpoint, report routes, metrics), and only then
// binds the listener.  It blocks until the HTTP service has stopped *and*
// the lifecycle gate has been released by Stop.
//
// Stop shuts the HTTP service down gracefully, bounded by the configured
// shutdown timeout, then releases the gate.  It is safe to call before
// Start, concurrently, and repeatedly.
//
// Notes
// -----
// • Cancelling the ctx passed to Start is treated as an interruption: the
//   server is stopped and Start returns ErrInterrupted.  The caller is
//   expected to exit.
// • Oxford commas, two spaces after periods.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/audit"
	"github.com/yanizio/kapenta/internal/backup"
	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/middleware"
	"github.com/yanizio/kapenta/internal/render"
	"github.com/yanizio/kapenta/internal/report"
	"github.com/yanizio/kapenta/internal/routing"
)

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrStopped is returned by Start after Stop has run.
	ErrStopped = errors.New("server already stopped")

	// ErrInterrupted is returned by Start when its context is cancelled
	// while blocked.  It wraps the context error.
	ErrInterrupted = errors.New("server interrupted while running")
)

type state int

const (
	created state = iota
	started
	stopped
)

// Option customises a Server.
type Option func(*Server)

// WithAudit records every report request with rec.
func WithAudit(rec audit.Recorder) Option {
	return func(s *Server) {
		if rec != nil {
			s.audit = rec
		}
	}
}

// WithBackup keeps a copy of every successful render.
func WithBackup(w *backup.Writer) Option {
	return func(s *Server) { s.backup = w }
}

// Server is the lifecycle controller.  Create it with New.
type Server struct {
	cfg     *config.Config
	reg     *report.Registry
	eng     render.Engine
	audit   audit.Recorder
	backup  *backup.Writer
	limiter *middleware.RateLimiter

	routerOnce sync.Once
	router     http.Handler

	mu      sync.Mutex
	state   state
	httpSrv *http.Server
	ln      net.Listener

	gate     chan struct{}
	stopOnce sync.Once
}

// checkRoutes catches registries assembled with report.NewRegistry, which
// skips the mapper's path checks.  The router panics on pattern syntax.
func checkRoutes(reg *report.Registry) error {
	if !routing.IsValidPath(reg.APIRoot()) {
		return fmt.Errorf("%w %q", report.ErrInvalidAPIRoot, reg.APIRoot())
	}
	for _, res := range reg.Resources() {
		if !routing.IsValidPath(res.Path) {
			return fmt.Errorf("server: report %q has invalid path %q", res.Name, res.Path)
		}
	}
	return nil
}

// New wires a Server.  It does not bind any socket.
func New(cfg *config.Config, reg *report.Registry, eng render.Engine, opts ...Option) (*Server, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("server: nil config")
	case reg == nil || reg.Len() == 0:
		return nil, report.ErrNoReports
	case eng == nil:
		return nil, errors.New("server: nil render engine")
	}
	if err := checkRoutes(reg); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		reg:   reg,
		eng:   eng,
		audit: audit.Nop{},
		gate:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		rl, err := middleware.NewRateLimiter(rps, cfg.RateLimit.Burst)
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		s.limiter = rl
	}
	return s, nil
}

// Registry returns the registry this server exposes.
func (s *Server) Registry() *report.Registry { return s.reg }

// Handler returns the fully wired router.  It is built once.
func (s *Server) Handler() http.Handler {
	s.routerOnce.Do(func() { s.router = s.routes() })
	return s.router
}

// Addr is the bound listener address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Addr()
}

// Start boots dependencies, binds, serves, and blocks until stopped.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case started:
		s.mu.Unlock()
		return ErrAlreadyStarted
	case stopped:
		s.mu.Unlock()
		return ErrStopped
	}
	s.state = started
	s.mu.Unlock()

	zap.L().Info("server is starting", zap.String("addr", s.cfg.Addr()))

	if err := s.eng.Boot(); err != nil {
		_ = s.Stop()
		return fmt.Errorf("boot render engine: %w", err)
	}
	h := s.Handler()

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		_ = s.Stop()
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	srv := newHTTPServer(h)

	s.mu.Lock()
	if s.state == stopped {
		// Stop won the race during boot; never serve.
		s.mu.Unlock()
		_ = ln.Close()
		<-s.gate
		return nil
	}
	s.ln, s.httpSrv = ln, srv
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()

	zap.L().Info("server is running",
		zap.String("addr", ln.Addr().String()),
		zap.String("api_root", s.reg.APIRoot()),
		zap.Int("reports", s.reg.Len()))

	select {
	case err := <-serveErr:
		if err != nil {
			zap.L().Error("http service failed", zap.Error(err))
			_ = s.Stop()
			return fmt.Errorf("serve: %w", err)
		}
		<-s.gate
		zap.L().Info("server stopped")
		return nil

	case <-ctx.Done():
		zap.L().Error("server interrupted", zap.Error(ctx.Err()))
		_ = s.Stop()
		<-serveErr
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
}

// Stop gracefully shuts the HTTP service down and releases the gate.  Only
// the first call does any work; later calls return nil.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = stopped
		srv := s.httpSrv
		s.mu.Unlock()

		if srv != nil {
			zap.L().Info("server is stopping", zap.Duration("timeout", s.shutdownTimeout()))
			ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
			defer cancel()
			if err = srv.Shutdown(ctx); err != nil {
				zap.L().Warn("graceful shutdown incomplete, closing connections", zap.Error(err))
				_ = srv.Close()
				err = fmt.Errorf("shutdown: %w", err)
			}
		}
		close(s.gate)
	})
	return err
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return config.DefaultShutdownTimeout
}
