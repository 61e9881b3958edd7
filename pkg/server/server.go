// Package server serves the built front-end bundle with a single-page-app
// fallback to index.html.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Defaults for the development server.
const (
	DefaultPort     = 3000
	DefaultBuildDir = "build"

	assetsPrefix      = "/assets/"
	assetCacheControl = "public, max-age=31536000, immutable"
	shutdownTimeout   = 5 * time.Second
)

// DefaultHeaders are added to every successful response.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
}

// Config describes what to serve and where.
type Config struct {
	BuildDir string
	Port     int
	Headers  map[string]string
}

type handler struct {
	root    string
	headers map[string]string
	logger  *slog.Logger
}

// NewHandler returns the static file handler for cfg.BuildDir.
func NewHandler(cfg Config, logger *slog.Logger) (http.Handler, error) {
	dir := cfg.BuildDir
	if dir == "" {
		dir = DefaultBuildDir
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build dir: %w", err)
	}
	headers := cfg.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &handler{root: root, headers: headers, logger: logger}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	pathname := r.URL.Path
	if pathname == "/" {
		pathname = "/index.html"
	}

	target := filepath.Join(h.root, filepath.FromSlash(pathname))
	rel, err := filepath.Rel(h.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		h.logger.Warn("rejected path outside build dir", "path", r.URL.Path)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if h.serveFile(w, r, target, pathname) {
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		index := filepath.Join(h.root, "index.html")
		if h.serveFileAs(w, r, index, "text/html") {
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// serveFile writes the file at target if it is a regular file.
func (h *handler) serveFile(w http.ResponseWriter, r *http.Request, target, pathname string) bool {
	return h.serveFileAs(w, r, target, mime.TypeByExtension(path.Ext(pathname)))
}

func (h *handler) serveFileAs(w http.ResponseWriter, r *http.Request, target, ctype string) bool {
	f, err := os.Open(target)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	header := w.Header()
	for k, v := range h.headers {
		header.Set(k, v)
	}
	if ctype != "" {
		header.Set("Content-Type", ctype)
	}
	if strings.HasPrefix(r.URL.Path, assetsPrefix) {
		header.Set("Cache-Control", assetCacheControl)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// Server runs the handler until its context is cancelled.
type Server struct {
	cfg    Config
	logger *slog.Logger
	srv    *http.Server
}

// New creates a server for cfg.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h, err := NewHandler(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           logRequests(h, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run listens on the configured port and shuts down gracefully when ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running", "addr", ln.Addr().String(), "dir", s.cfg.BuildDir)
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
