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
			Name: "revtracker_http_requests_total",
			Help: "HTTP requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revtracker_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	workflowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revtracker_workflow_transitions_total",
			Help: "Approval workflow transitions by entity kind and action",
		},
		[]string{"entity_kind", "action"},
	)

	thresholdWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revtracker_budget_threshold_warnings_total",
			Help: "Line item early-warning notifications by tier",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, workflowTransitionsTotal, thresholdWarningsTotal)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies per method and path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// ObserveWorkflowTransition increments the workflow transition counter.
func ObserveWorkflowTransition(entityKind, action string) {
	workflowTransitionsTotal.WithLabelValues(entityKind, action).Inc()
}

// ObserveThresholdWarning increments the early-warning counter.
func ObserveThresholdWarning(tier string) {
	thresholdWarningsTotal.WithLabelValues(tier).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
