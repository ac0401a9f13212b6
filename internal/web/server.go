package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// NewServer creates and configures the HTTP server for the dashboard.
func NewServer(a *app.App, version, addr string) (*http.Server, error) {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		app:      a,
		renderer: NewRenderer(templateSub, version, logging.OrNop(a.Log).Named("web")),
	}

	return &http.Server{
		Addr:              addr,
		Handler:           securityHeaders(routes(h, staticSub)),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func routes(h *Handlers, static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleDashboard)
	mux.HandleFunc("GET /calls", h.HandleCalls)
	mux.HandleFunc("POST /calls/archive", h.HandleArchive)
	mux.HandleFunc("GET /calls/{id}", h.HandleCall)
	mux.HandleFunc("GET /contacts", h.HandleContacts)
	mux.HandleFunc("GET /contacts/calls", h.HandleContact)
	mux.HandleFunc("GET /actions", h.HandleActions)
	mux.HandleFunc("GET /history", h.HandleHistory)
	mux.HandleFunc("POST /history/clear", h.HandleHistoryClear)
	mux.HandleFunc("POST /history/{id}/pin", h.HandleHistoryPin)
	mux.HandleFunc("POST /history/{id}/revert", h.HandleHistoryRevert)
	mux.HandleFunc("GET /connection-log", h.HandleConnLog)
	mux.HandleFunc("POST /connection-log/clear", h.HandleConnLogClear)
	mux.HandleFunc("GET /lab", h.HandleLab)
	mux.HandleFunc("POST /lab/analyze", h.HandleLabAnalyze)
	mux.HandleFunc("POST /lab/save", h.HandleLabSave)
	mux.HandleFunc("POST /refresh", h.HandleRefresh)
	mux.HandleFunc("POST /warning/dismiss", h.HandleDismissWarning)
	mux.HandleFunc("POST /theme/toggle", h.HandleThemeToggle)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	log = logging.OrNop(log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("dashboard running", zap.String("url", "http://"+srv.Addr))
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "[::]") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
