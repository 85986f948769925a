package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records job runs. A nil *Metrics is valid and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busticket",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduler job runs by outcome.",
		}, []string{"job", "outcome"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busticket",
			Subsystem: "scheduler",
			Name:      "items_total",
			Help:      "Items handled by scheduler jobs by result.",
		}, []string{"job", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "busticket",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"job"}),
	}
}

func (m *Metrics) observe(job Job, outcome string, stats RunStats, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(job), outcome).Inc()
	m.items.WithLabelValues(string(job), "created").Add(float64(stats.Created))
	m.items.WithLabelValues(string(job), "skipped").Add(float64(stats.Skipped))
	m.items.WithLabelValues(string(job), "failed").Add(float64(stats.Failed))
	m.duration.WithLabelValues(string(job)).Observe(elapsed.Seconds())
}

func (m *Metrics) skipped(job Job) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(job), "locked").Inc()
}
