package solver

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates Prometheus instrumentation for solve runs.
type Metrics struct {
	registry       *prometheus.Registry
	handler        http.Handler
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	modelVariables prometheus.Histogram
}

// NewMetrics registers the solver collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Total number of solve runs by outcome",
	}, []string{"status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "End-to-end duration of solve runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"status"})

	modelVariables := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_model_variables",
		Help:    "Number of decision variables in assembled models",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	registry.MustRegister(runsTotal, runDuration, modelVariables)

	return &Metrics{
		registry:       registry,
		handler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		runsTotal:      runsTotal,
		runDuration:    runDuration,
		modelVariables: modelVariables,
	}
}

// ObserveRun records the outcome of one solve run.
func (m *Metrics) ObserveRun(status string, duration time.Duration, variables int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	if variables > 0 {
		m.modelVariables.Observe(float64(variables))
	}
}

// Handler exposes the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return m.handler
}
