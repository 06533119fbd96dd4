package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/library"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 5 * time.Second

// Deps are the services the web UI reads and writes.
type Deps struct {
	Store  *library.Store
	Blobs  *blob.Registry
	Config *config.Config
	Logger *zap.Logger
}

// NewServer creates the HTTP server for the gallery UI and JSON API.
func NewServer(d Deps, version, bind string, port int) (*http.Server, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := newHandlers(d, NewRenderer(templateSub, version, d.Logger))

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(h.routes(staticSub)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, nil
}

// routes registers pages, the JSON API, object URLs and static files.
func (h *Handlers) routes(static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/library", http.StatusFound)
	})
	mux.HandleFunc("GET /library", h.HandleList)
	mux.HandleFunc("GET /library/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /library/{id}", h.HandleDelete)
	mux.HandleFunc("POST /library/clear", h.HandleClear)
	mux.HandleFunc("GET /search", h.HandleSearch)
	mux.HandleFunc("GET /catalog", h.HandleCatalog)

	mux.HandleFunc("GET /api/library", h.APIList)
	mux.HandleFunc("POST /api/library", h.APISave)
	mux.HandleFunc("GET /api/library/{id}", h.APIGet)
	mux.HandleFunc("PATCH /api/library/{id}", h.APIUpdate)
	mux.HandleFunc("DELETE /api/library/{id}", h.APIDelete)
	mux.HandleFunc("GET /api/search", h.APISearch)
	mux.HandleFunc("GET /api/stats", h.APIStats)
	mux.HandleFunc("GET /api/editor/filter", h.APIFilter)

	mux.HandleFunc("GET /blob/{id}", h.HandleBlob)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
// Media may come from data: URIs and this process's object URLs.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; media-src 'self' data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func Run(srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("gallery UI running", zap.String("url", "http://"+srv.Addr))
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
