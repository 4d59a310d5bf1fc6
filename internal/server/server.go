// Package server exposes the scanner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/example/secure-scanner/internal/report"
	"github.com/example/secure-scanner/internal/scan"
	"github.com/example/secure-scanner/internal/telemetry"
)

const maxRequestBytes = 1 << 20

// Engine runs one analysis.
type Engine interface {
	Scan(ctx context.Context, target string) (scan.Result, error)
}

// Server serves scan requests for paths below Root.
type Server struct {
	Root    string
	Engine  Engine
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
	Tool    report.Tool
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.Metrics != nil {
		r.Use(s.Metrics.RequestTrackingMiddleware(routePattern))
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Post("/scan", s.handleScan)

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	target, format, err := validateRequest(req)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := s.Engine.Scan(r.Context(), filepath.Join(s.Root, target))
	s.Metrics.ObserveScan(time.Since(start), len(res.Files), res.Findings, err)
	if err != nil {
		if errors.Is(err, scan.ErrTargetNotFound) {
			renderError(w, r, http.StatusNotFound, "target not found")
			return
		}
		s.logger().Error("scan failed", "path", target, "error", err)
		renderError(w, r, http.StatusInternalServerError, "scan failed")
		return
	}

	s.logger().Info("scan served", "path", target, "format", string(format), "issues", len(res.Findings))
	switch format {
	case report.FormatSARIF:
		render.JSON(w, r, report.BuildSARIF(res.Findings, s.tool()))
	default:
		render.JSON(w, r, report.NewDocument(res.Findings))
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// ListenAndServe runs the server on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("scanner listening", "addr", addr, "root", s.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger().Info("scanner stopped")
	return nil
}

func (s *Server) tool() report.Tool {
	if s.Tool.Name == "" {
		return report.DefaultTool
	}
	return s.Tool
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
