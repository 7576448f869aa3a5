package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geckoload",
			Subsystem: "session",
			Name:      "total",
			Help:      "Loader sessions by outcome.",
		},
		[]string{"outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geckoload",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Session duration from handshake to flush.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)
	payloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "geckoload",
			Name:      "payload_bytes",
			Help:      "Inflated payload size of completed sessions.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
	classifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geckoload",
			Name:      "classify_total",
			Help:      "Payload classifications by detected kind.",
		},
		[]string{"kind"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geckoload",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total status HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geckoload",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessionTotal, sessionDuration, payloadBytes, classifyTotal, httpRequests, httpDuration)
	})
}

// RecordSession counts one session. Idle polls are counted but not timed.
func RecordSession(outcome string, duration time.Duration) {
	RegisterMetrics()
	sessionTotal.WithLabelValues(outcome).Inc()
	if outcome == "idle" {
		return
	}
	sessionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordClassified records the kind and inflated size of a completed transfer.
func RecordClassified(kind string, size int) {
	RegisterMetrics()
	classifyTotal.WithLabelValues(kind).Inc()
	payloadBytes.Observe(float64(size))
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
