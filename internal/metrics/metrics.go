package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the breakwatch collectors. Its methods are safe on a nil
// receiver so services can run without instrumentation.
type Metrics struct {
	registry         *prometheus.Registry
	scansIngested    prometheus.Counter
	scansRejected    *prometheus.CounterVec
	analysisRuns     prometheus.Counter
	analysisDuration prometheus.Histogram
	analysisInterval prometheus.Gauge
	restores         *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scansIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakwatch_scans_ingested_total",
			Help: "Total badge scans accepted into the event store.",
		}),
		scansRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakwatch_scans_rejected_total",
			Help: "Total badge scans rejected at ingestion by reason.",
		}, []string{"reason"}),
		analysisRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakwatch_analysis_runs_total",
			Help: "Total interval analysis runs completed.",
		}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "breakwatch_analysis_duration_seconds",
			Help:    "Histogram of interval analysis run durations.",
			Buckets: prometheus.DefBuckets,
		}),
		analysisInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "breakwatch_analysis_intervals",
			Help: "Number of computed intervals in the most recent analysis run.",
		}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakwatch_restores_total",
			Help: "Total backup restores by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.scansIngested,
		m.scansRejected,
		m.analysisRuns,
		m.analysisDuration,
		m.analysisInterval,
		m.restores,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ScanIngested() {
	if m == nil {
		return
	}
	m.scansIngested.Inc()
}

func (m *Metrics) ScanRejected(reason string) {
	if m == nil {
		return
	}
	m.scansRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AnalysisCompleted(elapsed time.Duration, intervals int) {
	if m == nil {
		return
	}
	m.analysisRuns.Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
	m.analysisInterval.Set(float64(intervals))
}

func (m *Metrics) RestoreFinished(result string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(result).Inc()
}
