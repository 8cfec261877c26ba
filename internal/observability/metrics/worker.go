package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	sweepsTotal         *prometheus.CounterVec
	sweepDuration       *prometheus.HistogramVec
	repairsTotal        *prometheus.CounterVec
	eventsConsumedTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	sweepsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "reconciler",
			Name:      "sweeps_total",
			Help:      "Total reconciliation sweeps by status.",
		},
		[]string{"service", "status"},
	)
	sweepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docflow",
			Subsystem: "reconciler",
			Name:      "sweep_duration_seconds",
			Help:      "Reconciliation sweep duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	repairsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "reconciler",
			Name:      "repairs_total",
			Help:      "Total documents repaired from completed tasks.",
		},
		[]string{"service"},
	)
	eventsConsumedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "lifecycle",
			Name:      "events_consumed_total",
			Help:      "Total lifecycle events consumed by document status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(sweepsTotal, sweepDuration, repairsTotal, eventsConsumedTotal)

	return &WorkerMetrics{
		registry:            registry,
		sweepsTotal:         sweepsTotal,
		sweepDuration:       sweepDuration,
		repairsTotal:        repairsTotal,
		eventsConsumedTotal: eventsConsumedTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) FinishSweep(service string, duration time.Duration, repaired int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sweepsTotal.WithLabelValues(service, status).Inc()
	m.sweepDuration.WithLabelValues(service).Observe(duration.Seconds())
	if repaired > 0 {
		m.repairsTotal.WithLabelValues(service).Add(float64(repaired))
	}
}

func (m *WorkerMetrics) ObserveEvent(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.eventsConsumedTotal.WithLabelValues(service, status).Inc()
}
