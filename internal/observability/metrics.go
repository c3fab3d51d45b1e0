package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	provisionSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gpuprep",
			Subsystem: "provision",
			Name:      "steps_total",
			Help:      "Provisioning steps executed, by kind and outcome.",
		},
		[]string{"step", "kind", "success"},
	)
	provisionStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gpuprep",
			Subsystem: "provision",
			Name:      "step_duration_seconds",
			Help:      "Provisioning step duration in seconds.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"step", "kind", "success"},
	)
	readinessAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gpuprep",
			Subsystem: "readiness",
			Name:      "poll_attempts_total",
			Help:      "Readiness poll attempts against the notebook server.",
		},
		[]string{"session", "matched"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gpuprep",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total status API requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gpuprep",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(provisionSteps, provisionStepDuration, readinessAttempts, httpRequests, httpDuration)
	})
}

func RecordProvisionStep(step, kind string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	provisionSteps.WithLabelValues(step, kind, successLabel).Inc()
	provisionStepDuration.WithLabelValues(step, kind, successLabel).Observe(duration.Seconds())
}

func RecordReadinessAttempt(session string, matched bool) {
	RegisterMetrics()
	readinessAttempts.WithLabelValues(session, strconv.FormatBool(matched)).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
