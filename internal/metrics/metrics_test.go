package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDealMetrics_Counters(t *testing.T) {
	m := newDealMetricsWithRegisterer(prometheus.NewRegistry())

	m.DealCreated()
	m.DealCreated()
	m.Transition("deliver", "ok")
	m.Transition("deliver", "rejected")
	m.Transition("deliver", "ok")
	m.ComplaintFiled()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.dealsCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("deliver", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("deliver", "rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.complaints))
}

// Нулевой указатель безопасен: сервисы могут работать без метрик.
func TestDealMetrics_NilSafe(t *testing.T) {
	var m *DealMetrics
	assert.NotPanics(t, func() {
		m.DealCreated()
		m.Transition("confirm", "ok")
		m.ComplaintFiled()
	})
}
