// Package metrics exposes query and registry metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperjump/biokgvec/internal/registry"
)

const namespace = "biokgvec"

// Recorder owns a private Prometheus registry. It implements query.Observer.
type Recorder struct {
	reg *prometheus.Registry

	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	entries       *prometheus.GaugeVec
	loadErrors    prometheus.Gauge
}

// New creates a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of similarity queries by operation and outcome",
			},
			[]string{"op", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of similarity queries",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"op"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_entries",
				Help:      "Number of loaded registry entries by kind",
			},
			[]string{"kind"},
		),
		loadErrors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_load_errors",
				Help:      "Number of model files that failed to load",
			},
		),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.queriesTotal,
		r.queryDuration,
		r.entries,
		r.loadErrors,
	)
	return r
}

// ObserveQuery records one query outcome.
func (r *Recorder) ObserveQuery(op, code string, elapsed time.Duration) {
	r.queriesTotal.WithLabelValues(op, code).Inc()
	r.queryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetRegistry publishes the entry and load error counts of reg.
func (r *Recorder) SetRegistry(reg *registry.Registry) {
	r.entries.WithLabelValues(string(registry.KindTable)).Set(float64(reg.Count(registry.KindTable)))
	r.entries.WithLabelValues(string(registry.KindDictionary)).Set(float64(reg.Count(registry.KindDictionary)))
	r.loadErrors.Set(float64(len(reg.LoadErrors())))
}

// Gatherer returns the underlying registry for scraping and tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
