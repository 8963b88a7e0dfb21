// Package api serves the position service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/auth"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/fallback"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/health"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/metrics"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/position"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/track"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	calc       *position.Calculator
	fallbacks  *fallback.Table
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, calc *position.Calculator, fallbacks *fallback.Table, readiness *health.Readiness) *Server {
	s := &Server{
		calc:      calc,
		fallbacks: fallbacks,
		logger:    logger,
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", readiness.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/position", s.handlePosition)
	mux.HandleFunc("GET /api/v1/track", s.handleTrack)
	mux.HandleFunc("GET /api/v1/objects", s.handleObjects)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type positionResponse struct {
	Object   string    `json:"object"`
	Center   string    `json:"center"`
	Time     time.Time `json:"time"`
	X        float64   `json:"x_km"`
	Y        float64   `json:"y_km"`
	Z        float64   `json:"z_km"`
	VX       float64   `json:"vx_km_s"`
	VY       float64   `json:"vy_km_s"`
	VZ       float64   `json:"vz_km_s"`
	Source   string    `json:"source"`
	Degraded bool      `json:"degraded"`
}

// handlePosition computes one position.
// GET /api/v1/position?object=mars&center=sun&time=2025-06-01T00:00:00Z
// The time parameter is optional and defaults to now.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	object := q.Get("object")
	if object == "" {
		writeError(w, http.StatusBadRequest, "missing object parameter")
		return
	}
	center := q.Get("center")

	at := time.Now().UTC()
	if raw := q.Get("time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time must be RFC 3339: "+err.Error())
			return
		}
		at = parsed
	}

	result, err := s.calc.PositionAt(r.Context(), object, center, at)
	if err != nil {
		if errors.Is(err, position.ErrNoData) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("position failed", "component", "api", "object", object, "error", err)
		writeError(w, http.StatusInternalServerError, "position computation failed")
		return
	}

	writeJSON(w, http.StatusOK, positionResponse{
		Object:   result.Object,
		Center:   result.Center,
		Time:     result.Time,
		X:        result.X,
		Y:        result.Y,
		Z:        result.Z,
		VX:       result.VX,
		VY:       result.VY,
		VZ:       result.VZ,
		Source:   result.Source.String(),
		Degraded: result.Degraded,
	})
}

type trackResponse struct {
	Object   string        `json:"object"`
	Center   string        `json:"center"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Source   string        `json:"source"`
	Degraded bool          `json:"degraded"`
	Points   []track.Point `json:"points"`
}

// handleTrack samples a trajectory arc.
// GET /api/v1/track?object=mars&center=sun&start=...&end=...&step=1h
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	object := q.Get("object")
	if object == "" {
		writeError(w, http.StatusBadRequest, "missing object parameter")
		return
	}

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC 3339: "+err.Error())
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC 3339: "+err.Error())
		return
	}
	step, err := time.ParseDuration(q.Get("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "step must be a duration like 30m or 1h: "+err.Error())
		return
	}

	path, err := track.Sample(r.Context(), s.calc, track.Request{
		Object: object,
		Center: q.Get("center"),
		Start:  start,
		End:    end,
		Step:   step,
	})
	if err != nil {
		switch {
		case errors.Is(err, position.ErrNoData):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away; nothing useful to write.
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, trackResponse{
		Object:   path.Object,
		Center:   path.Center,
		Start:    path.Start,
		End:      path.End,
		Source:   path.Source.String(),
		Degraded: path.Degraded,
		Points:   path.Points,
	})
}

type objectsResponse struct {
	Objects []string `json:"objects"`
}

// handleObjects lists every object the service can answer for: the known
// body table plus anything carried by the fallback table.
func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	var names []string
	for _, n := range frame.Names() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range s.fallbacks.Objects() {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, objectsResponse{Objects: names})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
