package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tickspot-scraper/internal/metrics"
	"tickspot-scraper/internal/usecase"
)

// HTTPServer returns a configured http.Server that exposes endpoints to trigger syncs.
// Call ListenAndServe on the returned server in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: loggingMiddleware(a.log, a.routes())}
	a.log.Info("http trigger server configured", slog.String("addr", addr))
	return srv
}

func (a *App) routes() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", a.healthz)
	// /sync?from=...&to=...&timeout=...
	router.GET("/sync", a.sync)
	router.POST("/sync", a.sync)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler(a.registry))
	return router
}

func (a *App) healthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// sync runs one sync over [from, to]. from/to accept RFC3339 or YYYY-MM-DD
// and default to [now-24h, now].
func (a *App) sync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	now := time.Now().UTC()

	toTime, err := ParseEnd(q.Get("to"), now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "error": err.Error()})
		return
	}
	fromTime, err := ParseStart(q.Get("from"), toTime.Add(-24*time.Hour))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "error": err.Error()})
		return
	}

	// Optional timeout override: ?timeout=5m
	ctx := r.Context()
	if tStr := q.Get("timeout"); tStr != "" {
		if d, err := time.ParseDuration(tStr); err == nil && d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	resp := map[string]any{
		"status": "ok",
		"from":   fromTime.Format(time.RFC3339),
		"to":     toTime.Format(time.RFC3339),
	}
	if err := a.RunOnce(ctx, fromTime, toTime); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrSyncRunning) {
			status = http.StatusConflict
		}
		resp["status"] = "error"
		resp["error"] = err.Error()
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("dur", time.Since(start)),
		)
	})
}
