// Package apiserver implements vibe2apk's HTTP ingestion surface: upload,
// status, download, and cancel endpoints backed by a shared queue.Store. It
// never runs a build itself; it only admits work and reads the state a
// worker pool (internal/workflow) writes back.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vibe2apk/internal/config"
	"vibe2apk/internal/logging"
	"vibe2apk/internal/queue"
)

// Server is the API process's HTTP listener, grounded on the teacher's
// internal/daemon/api_server.go apiServer shape (bind/logger/mux wired into
// a single *http.Server with fixed header/read/idle timeouts, Start/Stop
// lifecycle deferring the actual net.Listen to Start).
type Server struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New builds the mux and wraps it in an http.Server. It does not start
// listening; call Start for that.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, store: store, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api", s.handleMeta)
	mux.HandleFunc("POST /api/build/html", s.rateLimited(s.handleBuildHTML))
	mux.HandleFunc("POST /api/build/zip", s.rateLimited(s.handleBuildZip))
	mux.HandleFunc("GET /api/build/{taskId}/status", s.handleStatus)
	mux.HandleFunc("GET /api/build/{taskId}/download", s.handleDownload)
	mux.HandleFunc("DELETE /api/build/{taskId}", s.handleCancel)

	// Static artifact prefix, per spec.md §4.1: read-only exposure of the
	// builds root with no filename rewriting, an alternative to the
	// download endpoint's rewritten Content-Disposition name.
	mux.Handle("GET /downloads/", http.StripPrefix("/downloads/", http.FileServer(http.Dir(cfg.BuildsDir))))

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	handler := observeMetrics(s.authenticate(logging.RequestLogger(logger, mux)))

	s.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: spec.md §5 requires no request-level timeout on
		// the status/download surface, and a large artifact download can
		// legitimately take longer than the teacher's fixed 30s cap.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening on cfg.Host:cfg.Port and returns once the listener
// is bound; serving and shutdown-on-ctx-cancel run in background goroutines.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down synchronously, waiting up to 5s for in-flight
// requests (a download in progress is allowed to finish streaming).
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
