package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// NewMetricsMiddleware builds a transport-level instrumentation middleware
// and registers its collectors on the given registry, alongside the
// inference samples, so one scrape covers both.
func NewMetricsMiddleware(reg prometheus.Registerer) func(http.Handler) http.Handler {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bertd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bertd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
	inflight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bertd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)
	reg.MustRegister(requestsTotal, requestDuration, inflight)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := routePatternOrPath(r)
			inflight.WithLabelValues(path).Inc()
			defer inflight.WithLabelValues(path).Dec()

			sr := &statusRecorder{ResponseWriter: w, status: 200}
			start := time.Now()
			next.ServeHTTP(sr, r)
			statusLabel := itoa(sr.status)
			requestsTotal.WithLabelValues(path, r.Method, statusLabel).Inc()
			requestDuration.WithLabelValues(path, r.Method, statusLabel).Observe(time.Since(start).Seconds())
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// fast integer to ascii for the small set of status codes
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
