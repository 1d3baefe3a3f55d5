package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementFill("done")
	m.IncrementFill("done")
	m.IncrementFill("aborted")
	m.IncrementField("filled", "exact_name")
	m.IncrementField("not_found", "none")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fills.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fields.WithLabelValues("filled", "exact_name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fields.WithLabelValues("not_found", "none")))
}

func TestMetrics_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFillDuration(1500 * time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "form_filler_fill_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementFill("done")
		m.IncrementField("filled", "exact_id")
		m.ObserveFillDuration(time.Second)
	})
}
