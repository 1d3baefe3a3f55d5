// Package metrics exposes Prometheus instrumentation for fill runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fill orchestrator.
type Metrics struct {
	// Fill outcomes by terminal state
	Fills *prometheus.CounterVec

	// Per-field outcomes by status and resolver tier
	Fields *prometheus.CounterVec

	// Duration of the whole fill, settle delay included
	FillDuration prometheus.Histogram
}

// New registers the fill metrics with reg, or with the default registry when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Fills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "form_filler_fills_total",
			Help: "Total fill operations by terminal state",
		}, []string{"state"}), // state: "done", "aborted"

		Fields: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "form_filler_fields_total",
			Help: "Total eligible fields by outcome and resolver tier",
		}, []string{"status", "tier"}),

		FillDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "form_filler_fill_duration_seconds",
			Help:    "Duration of fill operations including the settle delay",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		}),
	}
}

// IncrementFill records a finished fill.
func (m *Metrics) IncrementFill(state string) {
	if m != nil {
		m.Fills.WithLabelValues(state).Inc()
	}
}

// IncrementField records the outcome of one eligible field.
func (m *Metrics) IncrementField(status, tier string) {
	if m != nil {
		m.Fields.WithLabelValues(status, tier).Inc()
	}
}

// ObserveFillDuration records the duration of a fill.
func (m *Metrics) ObserveFillDuration(d time.Duration) {
	if m != nil {
		m.FillDuration.Observe(d.Seconds())
	}
}
