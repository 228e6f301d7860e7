package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks processing outcomes and quota decisions.
//
// Metrics:
//   - vulcan_pipeline_outcomes_total: outcomes by tool, kind, degraded
//   - vulcan_pipeline_duration_seconds: capability execution duration
//   - vulcan_quota_decisions_total: quota admissions and denials
//   - vulcan_quota_charges_total: successful charges, and charge failures
type PipelineMetrics struct {
	outcomesTotal  *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	quotaDecisions *prometheus.CounterVec
	quotaCharges   *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers pipeline metrics with the registry.
func NewPipelineMetrics(cfg Config, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pipeline",
				Name:      "outcomes_total",
				Help:      "Total processing outcomes by tool and kind",
			},
			[]string{"tool", "kind", "degraded"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Capability execution duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 13), // 50ms to ~200s
			},
			[]string{"tool"},
		),

		quotaDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "quota",
				Name:      "decisions_total",
				Help:      "Quota admission decisions",
			},
			[]string{"decision"},
		),

		quotaCharges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "quota",
				Name:      "charges_total",
				Help:      "Quota charges by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(pm.outcomesTotal, pm.duration, pm.quotaDecisions, pm.quotaCharges)
	return pm
}

// RecordOutcome records a processing outcome.
func (pm *PipelineMetrics) RecordOutcome(tool, kind string, degraded bool, duration time.Duration) {
	degradedLabel := "false"
	if degraded {
		degradedLabel = "true"
	}
	pm.outcomesTotal.WithLabelValues(tool, kind, degradedLabel).Inc()
	pm.duration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordQuotaDecision records an admission decision
// ("allowed", "premium", "denied").
func (pm *PipelineMetrics) RecordQuotaDecision(decision string) {
	pm.quotaDecisions.WithLabelValues(decision).Inc()
}

// RecordQuotaCharge records a charge attempt ("ok", "error").
func (pm *PipelineMetrics) RecordQuotaCharge(result string) {
	pm.quotaCharges.WithLabelValues(result).Inc()
}
