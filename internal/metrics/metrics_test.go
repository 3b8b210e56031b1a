package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordInvocation("openai", "ok", 200*time.Millisecond)
	m.RecordInvocation("openai", "ok", time.Second)
	m.RecordInvocation("openai", "rate_limit", time.Second)
	m.RecordAction("create_task")
	m.RecordSourceFailure("contacts")
	m.RecordStale()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("openai", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("openai", "rate_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("create_task")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("contacts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInvocation("openai", "ok", time.Second)
		m.RecordAction("send_message")
		m.RecordSourceFailure("events")
		m.RecordStale()
	})
}
