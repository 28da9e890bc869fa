package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sumctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sumctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	exchangeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sumctl",
			Subsystem: "exchange",
			Name:      "requests_total",
			Help:      "Datagram exchanges handled by the server, by outcome.",
		},
		[]string{"node", "outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sumctl",
			Subsystem: "exchange",
			Name:      "duration_seconds",
			Help:      "Time from datagram receipt to last reply.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
		[]string{"node", "outcome"},
	)
	exchangeElements = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sumctl",
			Subsystem: "exchange",
			Name:      "elements",
			Help:      "Element count of decoded requests.",
			Buckets:   []float64{0, 1, 16, 256, 1024, 4096, 16000},
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, exchangeRequests, exchangeDuration, exchangeElements)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordExchange counts one server-side exchange. elements is negative when
// the request never decoded.
func RecordExchange(node, outcome string, elements int, duration time.Duration) {
	RegisterMetrics()
	exchangeRequests.WithLabelValues(node, outcome).Inc()
	exchangeDuration.WithLabelValues(node, outcome).Observe(duration.Seconds())
	if elements >= 0 {
		exchangeElements.Observe(float64(elements))
	}
}
