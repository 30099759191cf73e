package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DealMetrics содержит метрики жизненного цикла сделок.
type DealMetrics struct {
	dealsCreated prometheus.Counter
	transitions  *prometheus.CounterVec
	complaints   prometheus.Counter
}

// NewDealMetrics создаёт и регистрирует метрики сделок.
func NewDealMetrics() *DealMetrics {
	return newDealMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newDealMetricsWithRegisterer(registerer prometheus.Registerer) *DealMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &DealMetrics{
		dealsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retasker_deals_created_total",
			Help: "Total number of deals created from responses",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retasker_deal_transitions_total",
			Help: "Total number of deal status transitions by action and result",
		}, []string{"action", "result"}),
		complaints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retasker_complaints_total",
			Help: "Total number of complaints filed",
		}),
	}

	registerer.MustRegister(m.dealsCreated, m.transitions, m.complaints)
	return m
}

// DealCreated фиксирует создание сделки.
func (m *DealMetrics) DealCreated() {
	if m == nil {
		return
	}
	m.dealsCreated.Inc()
}

// Transition фиксирует попытку перехода статуса сделки.
func (m *DealMetrics) Transition(action, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, result).Inc()
}

// ComplaintFiled фиксирует поданную жалобу.
func (m *DealMetrics) ComplaintFiled() {
	if m == nil {
		return
	}
	m.complaints.Inc()
}
