// Package server exposes the daemon's admin HTTP surface: health and
// readiness probes, a status document, a manual refresh trigger, and
// Prometheus metrics.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	xlog "github.com/firstone/holidays-google-poly/internal/log"
	"github.com/firstone/holidays-google-poly/internal/poller"
)

// Status is the admin status document.
type Status struct {
	Version       string        `json:"version"`
	Authenticated bool          `json:"authenticated"`
	AuthURL       string        `json:"auth_url,omitempty"`
	Poll          poller.Status `json:"poll"`
	Configured    []string      `json:"configured_calendars"`
	Available     []string      `json:"available_calendars,omitempty"`
}

// Backend is the application surface the server exposes.
type Backend interface {
	// Status returns the current status document.
	Status() Status
	// Refresh requests an immediate refresh cycle. Returns false while
	// authentication is still pending.
	Refresh() bool
}

// Router builds the admin HTTP handler.
func Router(backend Backend) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		st := backend.Status()
		if !st.Authenticated || st.Poll.LastRun.IsZero() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, backend.Status())
	})

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Post("/api/refresh", func(w http.ResponseWriter, _ *http.Request) {
			if !backend.Refresh() {
				writeJSON(w, http.StatusConflict, map[string]string{
					"error": "authentication pending",
				})
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs each request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	logger := xlog.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug().
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
