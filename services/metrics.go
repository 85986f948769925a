package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/busticket/busticket_backend/models"
)

// DispatchMetrics counts external deliveries. A nil value records nothing.
type DispatchMetrics struct {
	deliveries *prometheus.CounterVec
	skips      *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	factory := promauto.With(reg)
	return &DispatchMetrics{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busticket",
			Subsystem: "dispatch",
			Name:      "deliveries_total",
			Help:      "External notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		skips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busticket",
			Subsystem: "dispatch",
			Name:      "skipped_total",
			Help:      "External deliveries suppressed by user preferences.",
		}, []string{"reason"}),
	}
}

func (m *DispatchMetrics) sent(ch models.Channel, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(string(ch), outcome).Inc()
}

func (m *DispatchMetrics) skipped(reason string) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(reason).Inc()
}
