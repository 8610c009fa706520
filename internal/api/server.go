// Package api exposes the HTTP interface for starting harvest runs and
// polling their state and results.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/report"
	"github.com/insightbr/socialharvest/internal/runner"
	"github.com/insightbr/socialharvest/internal/store"
)

// Server wires HTTP handlers to the runner and run store.
type Server struct {
	router chi.Router
	runner *runner.Runner
	runs   harvest.RunStore
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(r *runner.Runner, runs harvest.RunStore, logger *zap.Logger) *Server {
	s := &Server{runner: r, runs: runs, logger: logger}

	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.recoverMiddleware)
	router.Use(timeoutMiddleware(60 * time.Second))

	router.Get("/healthz", s.healthz)
	router.Get("/readyz", s.readyz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/v1", func(router chi.Router) {
		router.Route("/runs", func(router chi.Router) {
			router.Post("/", s.startRun)
			router.Route("/{run_id}", func(router chi.Router) {
				router.Get("/", s.getRun)
				router.Get("/result", s.getRunResult)
				router.Post("/cancel", s.cancelRun)
			})
		})
	})

	s.router = router
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type startRunRequest struct {
	Query       string `json:"query"`
	Locale      string `json:"locale"`
	Country     string `json:"country"`
	RecencyDays int    `json:"recency_days"`
	Context     struct {
		Segment  string `json:"segment"`
		Product  string `json:"product"`
		Audience string `json:"audience"`
	} `json:"context"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	query := harvest.SearchQuery{
		Text:        req.Query,
		Locale:      req.Locale,
		Country:     req.Country,
		RecencyDays: req.RecencyDays,
	}
	qctx := harvest.QueryContext{
		Segment:  req.Context.Segment,
		Product:  req.Context.Product,
		Audience: req.Context.Audience,
	}

	h, err := s.runner.Start(r.Context(), query, qctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": h.ID})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	rec, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": rec})
}

func (s *Server) getRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	h, ok := s.runner.Lookup(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	select {
	case <-h.Done():
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "running"})
		return
	}

	res, err := h.Result()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.Build(res))
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	h, ok := s.runner.Lookup(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	h.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"run_id": runID, "status": "cancelling"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.runs.GetRun(r.Context(), "readiness-probe"); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusServiceUnavailable, "run store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
