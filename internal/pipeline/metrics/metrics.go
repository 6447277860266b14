// Package metrics implements the pipeline Observer with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"creditgate/internal/domain"
	"creditgate/internal/pipeline"
)

// Metrics holds the Prometheus collectors for the credit pipeline.
type Metrics struct {
	outcomes     *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
}

// New creates and registers the pipeline metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_check_outcomes_total",
			Help: "Credit check results by kind (cached, approved, denied, upstream_error, invalid_input)",
		}, []string{"kind"}),
		stageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditgate_stage_latency_seconds",
			Help:    "External lookup latency per pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

func (m *Metrics) Outcome(kind pipeline.ResultKind) {
	m.outcomes.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) StageLatency(stage domain.Stage, d time.Duration) {
	m.stageLatency.WithLabelValues(string(stage)).Observe(d.Seconds())
}
