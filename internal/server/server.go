package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mgpai22/subdeck/internal/config"
	"github.com/mgpai22/subdeck/internal/creative"
	"github.com/mgpai22/subdeck/internal/logging"
	"github.com/mgpai22/subdeck/internal/upload"
	"github.com/mgpai22/subdeck/internal/video"
)

// DurationProber reports the length of a video in seconds.
type DurationProber interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}

// Deps are the collaborators behind the HTTP routes. Prober and Phrases are
// optional; without Phrases the creativity routes answer 503.
type Deps struct {
	Renderer video.Renderer
	Prober   DurationProber
	Intake   *upload.Intake
	Phrases  *creative.Service
	Logger   *logging.Logger
}

// Server exposes rendering, phrase generation and timeline tools over HTTP.
// It holds no timeline state between requests.
type Server struct {
	cfg  config.ServerConfig
	deps Deps
	log  *logging.Logger
	now  func() time.Time
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Intake == nil {
		deps.Intake = upload.NewIntake("")
	}
	return &Server{cfg: cfg, deps: deps, log: deps.Logger, now: time.Now}
}

// Handler returns the routed handler wrapped in request id, logging and
// recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("POST /creativity/generate", s.handleGenerate)
	mux.HandleFunc("GET /creativity/styles", s.handleStyles)
	mux.HandleFunc("POST /timeline/parse", s.handleParse)
	mux.HandleFunc("POST /timeline/validate", s.handleValidate)
	mux.HandleFunc("POST /timeline/export", s.handleExport)

	return Chain(
		RequestID,
		Logger(s.log),
		Recovery(s.log),
	)(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Infow("Shutting down server", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
