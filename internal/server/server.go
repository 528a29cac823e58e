// Package server implements the development server: it serves the
// build output with a live-reload script injected into HTML pages,
// watches the source tree, and triggers targeted rebuilds on change.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dompile/cli/internal/metrics"
)

// RebuildFunc is invoked with a debounced batch of changed source
// paths; it returns an error when the rebuild could not run at all.
type RebuildFunc func(ctx context.Context, changed []string) error

// Options configures the development server.
type Options struct {
	Addr      string
	OutputDir string
	WatchDir  string
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server serves one project's output directory with live reload.
type Server struct {
	opts    Options
	hub     *Hub
	rebuild RebuildFunc
	logger  *slog.Logger
}

func New(opts Options, rebuild RebuildFunc) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:    opts,
		hub:     NewHub(opts.Metrics),
		rebuild: rebuild,
		logger:  logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(liveReloadScript))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics.Handler())
	}
	mux.Handle("/", s.siteHandler())

	// SSE connections are long-lived; no write timeout
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("dev server listening", "addr", ln.Addr().String(), "dir", s.opts.OutputDir)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	watchErr := make(chan error, 1)
	if s.opts.WatchDir != "" {
		go func() {
			watchErr <- Watch(ctx, s.opts.WatchDir, func(changed []string) {
				s.onChange(ctx, changed)
			})
		}()
	}

	select {
	case err := <-serveErr:
		return err
	case err := <-watchErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down dev server")
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// onChange runs one rebuild batch and notifies browsers.
func (s *Server) onChange(ctx context.Context, changed []string) {
	s.logger.Info("change detected", "files", len(changed))
	if err := s.rebuild(ctx, changed); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("rebuild failed", "error", err)
	}
	// broadcast even after a degraded rebuild: pages carry inline
	// error markers worth showing
	s.hub.Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// siteHandler serves the output directory, injecting the live-reload
// script into HTML pages. Directory requests fall through to their
// index.html.
func (s *Server) siteHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := path.Clean("/" + r.URL.Path)
		if strings.Contains(urlPath, "..") {
			http.NotFound(w, r)
			return
		}
		target := filepath.Join(s.opts.OutputDir, filepath.FromSlash(urlPath))

		info, err := os.Stat(target)
		if err == nil && info.IsDir() {
			target = filepath.Join(target, "index.html")
			info, err = os.Stat(target)
		}
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if strings.EqualFold(filepath.Ext(target), ".html") {
			s.serveHTML(w, r, target)
			return
		}
		http.ServeFile(w, r, target)
	})
}

// serveHTML rewrites the page on the way out so every served document
// participates in live reload.
func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, target string) {
	data, err := os.ReadFile(target) // #nosec G304 -- contained in the output dir
	if err != nil {
		http.Error(w, "read error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(injectLiveReload(data))
}

const liveReloadTag = `<script async src="/livereload.js"></script>`

// injectLiveReload places the client script before </body>, or appends
// it when the page has no body close tag.
func injectLiveReload(page []byte) []byte {
	html := string(page)
	lower := strings.ToLower(html)
	if idx := strings.LastIndex(lower, "</body>"); idx >= 0 {
		return []byte(html[:idx] + liveReloadTag + html[idx:])
	}
	return []byte(html + liveReloadTag)
}
