// Package metrics holds the Prometheus collectors shared by the pipelines and the
// HTTP host. Collectors register on the default registry at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paramexport"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Add-in runs by outcome",
		},
		[]string{"outcome"},
	)

	parameterUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parameter_updates_total",
			Help:      "Parameter updates attempted, by result",
		},
		[]string{"result"},
	)

	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of long-running engine steps in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"step"},
	)

	livenessTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liveness_ticks_total",
			Help:      "Liveness records emitted while a step was in flight",
		},
		[]string{"step"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Total work items rejected with 429",
		},
		[]string{"reason"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workitems_queued",
			Help:      "Work items waiting for the engine",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, parameterUpdatesTotal, stepDuration, livenessTicks,
		httpRequestsTotal, httpRequestDuration, backpressureTotal, queueDepth)
}

// Run records the outcome of one add-in run.
func Run(ok bool) {
	if ok {
		runsTotal.WithLabelValues("ok").Inc()
		return
	}
	runsTotal.WithLabelValues("failed").Inc()
}

// ParameterUpdate records one attempted parameter update.
func ParameterUpdate(ok bool) {
	if ok {
		parameterUpdatesTotal.WithLabelValues("ok").Inc()
		return
	}
	parameterUpdatesTotal.WithLabelValues("failed").Inc()
}

// ObserveStep records how long a long-running step took.
func ObserveStep(step string, d time.Duration) {
	stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// LivenessTick counts one liveness record for step.
func LivenessTick(step string) { livenessTicks.WithLabelValues(step).Inc() }

// HTTPRequest records one served request.
func HTTPRequest(path, method, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(path, method, status).Inc()
	httpRequestDuration.WithLabelValues(path, method, status).Observe(d.Seconds())
}

// Backpressure is called when a work item is rejected with 429.
func Backpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}

// QueueDepth sets the number of queued work items.
func QueueDepth(n int) { queueDepth.Set(float64(n)) }
