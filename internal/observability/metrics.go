package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirelink",
			Subsystem: "transfer",
			Name:      "bytes_sent_total",
			Help:      "Bytes successfully sent on the wire.",
		},
		[]string{"role"},
	)
	bytesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirelink",
			Subsystem: "transfer",
			Name:      "bytes_received_total",
			Help:      "Bytes successfully received from the wire.",
		},
		[]string{"role"},
	)
	sessionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wirelink",
			Subsystem: "session",
			Name:      "accepted_total",
			Help:      "Peer sessions accepted by the endpoint.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirelink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirelink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(bytesSent, bytesReceived, sessionsAccepted, httpRequests, httpDuration)
	})
}

func RecordBytesSent(role string, n int) {
	bytesSent.WithLabelValues(role).Add(float64(n))
}

func RecordBytesReceived(role string, n int) {
	bytesReceived.WithLabelValues(role).Add(float64(n))
}

func RecordSessionAccepted() {
	sessionsAccepted.Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, code).Inc()
	httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}
