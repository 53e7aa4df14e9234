package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LotMetrics records lifecycle transitions and settlement activity.
type LotMetrics struct {
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewLotMetrics registers the lot lifecycle metrics on the provided registerer.
func NewLotMetrics(reg prometheus.Registerer) *LotMetrics {
	if reg == nil {
		return &LotMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_transitions_total",
		Help: "Lot lifecycle transitions by resulting status.",
	}, []string{"to_status"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_payments_total",
		Help: "Settlement legs marked paid, by party.",
	}, []string{"party"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_transition_rejections_total",
		Help: "Transition attempts rejected by the state machine.",
	}, []string{"operation"})
	reg.MustRegister(transitions, payments, rejections)
	return &LotMetrics{
		transitions: transitions,
		payments:    payments,
		rejections:  rejections,
	}
}

// IncTransition counts a successful move into the given status.
func (l *LotMetrics) IncTransition(toStatus string) {
	if l == nil || l.transitions == nil {
		return
	}
	l.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncPayment counts a settlement leg marked paid for the given party.
func (l *LotMetrics) IncPayment(party string) {
	if l == nil || l.payments == nil {
		return
	}
	l.payments.WithLabelValues(normalizeLabel(party)).Inc()
}

// IncRejection counts a transition refused in the named operation.
func (l *LotMetrics) IncRejection(operation string) {
	if l == nil || l.rejections == nil {
		return
	}
	l.rejections.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
