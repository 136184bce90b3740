// Package metrics counts module loads, rewrites and compile cache traffic.
//
// Metrics are process-local; "xp --metrics" prints them in the Prometheus text
// format when a command finishes. Every method is safe on a nil *Metrics.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "xp"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	loadsTotal    *prometheus.CounterVec
	rewritesTotal *prometheus.CounterVec
	editsTotal    *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_loads_total",
				Help:      "Modules loaded, by loader kind and outcome",
			},
			[]string{"kind", "result"},
		),
		rewritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewrites_total",
				Help:      "Rewriter passes run, by feature",
			},
			[]string{"feature"},
		),
		editsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewrite_edits_total",
				Help:      "Text edits produced, by feature",
			},
			[]string{"feature"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compile_cache_lookups_total",
				Help:      "Compile cache lookups, by result",
			},
			[]string{"result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent per pipeline stage",
				// от сотни микросекунд до секунды
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"stage"},
		),
	}
	m.registry.MustRegister(m.loadsTotal, m.rewritesTotal, m.editsTotal, m.cacheTotal, m.stageDuration)
	return m
}

// Registry exposes the registry, for tests and HTTP handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Load counts one module load. kind is "native", "source" or "experimental".
func (m *Metrics) Load(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loadsTotal.WithLabelValues(kind, result).Inc()
}

// Rewrite counts one rewriter pass and its edits.
func (m *Metrics) Rewrite(feature string, edits int) {
	if m == nil {
		return
	}
	m.rewritesTotal.WithLabelValues(feature).Inc()
	m.editsTotal.WithLabelValues(feature).Add(float64(edits))
}

// Cache counts a compile cache lookup.
func (m *Metrics) Cache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.cacheTotal.WithLabelValues("miss").Inc()
}

// Stage records the duration of a pipeline stage.
func (m *Metrics) Stage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteText writes every family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
