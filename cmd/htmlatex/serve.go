package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alnah/go-htmlatex/internal/cache"
	"github.com/alnah/go-htmlatex/internal/metrics"
)

// Server defaults.
const (
	defaultAddr       = ":8080"
	defaultServeRoot  = "."
	indexDocument     = "index.html"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ErrServeRoot is returned when the document root is not a directory.
var ErrServeRoot = errors.New("serve root must be a directory")

// server renders documents under root on request.
type server struct {
	renderer    DocumentRenderer
	root        string
	imageDir    string
	imagePrefix string
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
}

// runServeCmd parses flags and runs the serve command until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: %s", ErrTooManyArgs, strings.Join(positional, " "))
	}

	s, err := loadSettings(&flags.common, &flags.tools, env)
	if err != nil {
		return err
	}
	undo := configureRuntime(s.logger)
	defer undo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector()
	if err := collector.Register(reg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	renderer, err := newRenderer(s, env, collector)
	if err != nil {
		return err
	}
	if err := renderer.Prepare(); err != nil {
		return err
	}

	root := firstNonEmpty(flags.root, s.file.Serve.Root, defaultServeRoot)
	if info, err := os.Stat(root); err != nil {
		return fmt.Errorf("serve root: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrServeRoot, root)
	}

	srv := &http.Server{
		Addr: firstNonEmpty(flags.addr, s.file.Serve.Addr, defaultAddr),
		Handler: (&server{
			renderer:    renderer,
			root:        root,
			imageDir:    s.lib.ImageRootDirectory,
			imagePrefix: strings.TrimSuffix(s.lib.ImageURLPrefix, "/"),
			gatherer:    reg,
			logger:      s.logger,
		}).routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Serving %s on %s\n", root, srv.Addr)
	}
	return listenAndServe(ctx, srv)
}

// listenAndServe runs srv until it fails or ctx is canceled, then shuts it
// down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// routes builds the HTTP handler.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Images are only served here when the prefix is a local path; an
	// absolute URL points at another host.
	if strings.HasPrefix(s.imagePrefix, "/") && len(s.imagePrefix) > 1 {
		r.Get(s.imagePrefix+"/{shard}/{name}", s.image)
	} else {
		s.logger.Debug("not serving images", "prefix", s.imagePrefix)
	}

	r.Get("/*", s.document)
	return r
}

// image serves committed cache entries only. In-progress temp files share
// the shard directories and must never be reachable.
func (s *server) image(w http.ResponseWriter, r *http.Request) {
	shard, name := chi.URLParam(r, "shard"), chi.URLParam(r, "name")
	ext := "." + cache.ImageExt
	key := cache.Key(strings.TrimSuffix(name, ext))
	if !strings.HasSuffix(name, ext) || !key.Valid() || key.Shard() != shard {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.imageDir, shard, name))
}

// document renders the requested file under root.
func (s *server) document(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += indexDocument
	}
	// Cleaning against "/" drops any ".." that would escape root.
	file := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))

	if !isDocument(file) {
		http.NotFound(w, r)
		return
	}

	content, err := os.ReadFile(file) // #nosec G304 -- confined to root above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("reading document failed", "path", rel, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var out string
	if isMarkdown(file) {
		out, err = s.renderer.RenderMarkdown(r.Context(), string(content), documentTitle(file))
	} else {
		out, err = s.renderer.Render(r.Context(), string(content))
	}
	if err != nil {
		// The diagnostic may contain TeX log lines; keep it out of the response.
		s.logger.Error("rendering document failed", "path", rel, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
