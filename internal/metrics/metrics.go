// Package metrics exposes Prometheus collectors for job transitions and
// report renders.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inspector"

// Metrics implements job.Recorder and report.RenderObserver.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	renders     *prometheus.CounterVec
	renderTime  prometheus.Histogram
	pages       prometheus.Histogram
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_operations_total",
			Help:      "Job lifecycle operations by operation and result.",
		}, []string{"op", "result"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report generation attempts by result.",
		}, []string{"result"}),
		renderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time to load and render a report.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_pages",
			Help:      "Pages per rendered report.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.renders,
		m.renderTime,
		m.pages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Transition counts one Manager operation outcome.
func (m *Metrics) Transition(op, result string) {
	m.transitions.WithLabelValues(op, result).Inc()
}

// Rendered records one GenerateReport outcome. Pages are observed only for
// successful renders.
func (m *Metrics) Rendered(result string, pages int, elapsed time.Duration) {
	m.renders.WithLabelValues(result).Inc()
	m.renderTime.Observe(elapsed.Seconds())
	if result == "ok" {
		m.pages.Observe(float64(pages))
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
