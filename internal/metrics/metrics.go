package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orrery_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_element_cache_hits_total",
		Help: "Element cache lookups that found a record.",
	})

	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_element_cache_misses_total",
		Help: "Element cache lookups that found no record.",
	})

	cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_element_cache_entries",
		Help: "Number of element sets currently cached.",
	})

	cacheValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_element_cache_validation_failures_total",
		Help: "Element sets rejected by validation on cache write.",
	})

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_ephemeris_refresh_total",
			Help: "Ephemeris gateway refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	gatewayDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_ephemeris_gateway_duration_seconds",
		Help:    "Ephemeris gateway call duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	solverNonConvergenceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_kepler_nonconvergence_total",
		Help: "Kepler solves that exhausted the iteration budget.",
	})

	degradedResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_degraded_results_total",
		Help: "Position results served with the degraded flag set.",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(cacheEntries)
	prometheus.MustRegister(cacheValidationFailuresTotal)
	prometheus.MustRegister(refreshTotal)
	prometheus.MustRegister(gatewayDurationSeconds)
	prometheus.MustRegister(solverNonConvergenceTotal)
	prometheus.MustRegister(degradedResultsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncCacheHits increments the element cache hit counter.
func IncCacheHits() { cacheHitsTotal.Inc() }

// IncCacheMisses increments the element cache miss counter.
func IncCacheMisses() { cacheMissesTotal.Inc() }

// SetCacheEntries publishes the current element cache size.
func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

// IncCacheValidationFailures increments the rejected-write counter.
func IncCacheValidationFailures() { cacheValidationFailuresTotal.Inc() }

// RecordRefresh records one gateway refresh attempt. outcome is "success"
// or "error".
func RecordRefresh(outcome string, duration time.Duration) {
	refreshTotal.WithLabelValues(outcome).Inc()
	gatewayDurationSeconds.Observe(duration.Seconds())
}

// IncSolverNonConvergence increments the Kepler non-convergence counter.
func IncSolverNonConvergence() { solverNonConvergenceTotal.Inc() }

// IncDegradedResults increments the degraded-result counter.
func IncDegradedResults() { degradedResultsTotal.Inc() }

// knownRoutes is the fixed route set served by the API. Anything else is
// collapsed to "other" so scanner traffic cannot inflate label cardinality.
var knownRoutes = map[string]bool{
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
	"/api/v1/position": true,
	"/api/v1/track":    true,
	"/api/v1/objects":  true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
