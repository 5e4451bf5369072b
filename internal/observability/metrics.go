package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	benchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microbench",
			Subsystem: "suite",
			Name:      "runs_total",
			Help:      "Benchmark invocations executed by the suite runner.",
		},
		[]string{"tool", "target", "outcome"},
	)
	benchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "microbench",
			Subsystem: "suite",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one benchmark invocation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		},
		[]string{"tool", "target"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microbench",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by benchd.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "microbench",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(benchRuns, benchDuration, httpRequests, httpDuration)
	})
}

// RecordBenchRun tallies one suite benchmark invocation. Target is "local"
// or the remote host the run executed on.
func RecordBenchRun(tool, target string, duration time.Duration, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	benchRuns.WithLabelValues(tool, target, outcome).Inc()
	benchDuration.WithLabelValues(tool, target).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
