// Package retention reclaims expired artifacts and compacts the usage
// ledger on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Schedule is a cron expression for the reclaim sweep.
	// Example: "*/5 * * * *" (every five minutes)
	Schedule string

	// CompactAfter is how long a usage record may stay idle before the
	// sweep removes it. 0 disables ledger compaction.
	CompactAfter time.Duration

	// Metrics records reclaim counts. May be nil.
	Metrics *metrics.ArtifactMetrics
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule:     "*/5 * * * *",
		CompactAfter: 30 * 24 * time.Hour,
	}
}

// Pruner runs the reclaim sweep: expired artifacts first, then idle usage
// records.
type Pruner struct {
	store     *artifact.Store
	ledger    *ledger.Ledger
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner. The ledger may be nil when only
// artifact reclaim is wanted.
func NewPruner(store *artifact.Store, usage *ledger.Ledger, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		store:  store,
		ledger: usage,
		config: config,
		logger: slog.Default().With("component", "artifact.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner
}

// Scheduler returns the cron scheduler driving this pruner.
func (p *Pruner) Scheduler() *Scheduler {
	return p.scheduler
}

// Prune runs one sweep and returns the number of artifacts reclaimed and
// usage records compacted.
func (p *Pruner) Prune(ctx context.Context) (int, int, error) {
	reclaimed, err := p.store.Reclaim(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("artifact reclaim failed: %w", err)
	}

	compacted := 0
	if p.ledger != nil && p.config.CompactAfter > 0 {
		cutoff := time.Now().Add(-p.config.CompactAfter)
		compacted, err = p.ledger.Compact(ctx, cutoff)
		if err != nil {
			return reclaimed, 0, fmt.Errorf("ledger compaction failed: %w", err)
		}
	}

	if p.config.Metrics != nil && reclaimed > 0 {
		p.config.Metrics.RecordReclaimed(reclaimed)
	}

	if reclaimed == 0 && compacted == 0 {
		p.logger.Debug("sweep found nothing to reclaim")
	} else {
		p.logger.Info("sweep completed",
			"artifacts_reclaimed", reclaimed,
			"records_compacted", compacted,
		)
	}

	return reclaimed, compacted, nil
}
