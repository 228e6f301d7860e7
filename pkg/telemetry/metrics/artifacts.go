package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ArtifactMetrics tracks the artifact store.
//
// Metrics:
//   - vulcan_artifacts_stored_total: artifacts stored
//   - vulcan_artifacts_reclaimed_total: artifacts removed by the sweep
//   - vulcan_artifacts_downloads_total: download attempts by result
//   - vulcan_artifacts_stored_bytes: stored blob sizes
type ArtifactMetrics struct {
	storedTotal    prometheus.Counter
	reclaimedTotal prometheus.Counter
	downloadsTotal *prometheus.CounterVec
	storedBytes    prometheus.Histogram
}

// NewArtifactMetrics creates and registers artifact metrics with the registry.
func NewArtifactMetrics(cfg Config, registry *prometheus.Registry) *ArtifactMetrics {
	am := &ArtifactMetrics{
		storedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "artifacts",
			Name:      "stored_total",
			Help:      "Total artifacts stored",
		}),

		reclaimedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "artifacts",
			Name:      "reclaimed_total",
			Help:      "Total artifacts removed by the reclaim sweep",
		}),

		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "artifacts",
				Name:      "downloads_total",
				Help:      "Download attempts by result",
			},
			[]string{"result"},
		),

		storedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "artifacts",
			Name:      "stored_bytes",
			Help:      "Stored blob sizes in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}

	registry.MustRegister(am.storedTotal, am.reclaimedTotal, am.downloadsTotal, am.storedBytes)
	return am
}

// RecordStored records a stored artifact and its size.
func (am *ArtifactMetrics) RecordStored(bytes int64) {
	am.storedTotal.Inc()
	am.storedBytes.Observe(float64(bytes))
}

// RecordReclaimed adds reclaimed artifacts from one sweep.
func (am *ArtifactMetrics) RecordReclaimed(count int) {
	am.reclaimedTotal.Add(float64(count))
}

// RecordDownload records a download attempt
// ("ok", "expired", "not_found", "error").
func (am *ArtifactMetrics) RecordDownload(result string) {
	am.downloadsTotal.WithLabelValues(result).Inc()
}
