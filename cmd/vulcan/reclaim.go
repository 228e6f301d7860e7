package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/artifact/retention"
	"fileworks-hq/vulcan/pkg/cli"
	"fileworks-hq/vulcan/pkg/config"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/telemetry/logging"
)

var reclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Run one reclaim sweep and exit",
	Long: `Run a single retention sweep: delete expired artifacts and compact
idle usage records, then exit.

Useful for cron-style deployments that prefer an external scheduler over
the built-in one.

Examples:
  # Sweep with default config
  vulcan reclaim

  # Sweep a specific deployment
  vulcan reclaim --config /etc/vulcan/config.yaml`,
	RunE: runReclaim,
}

func init() {
	rootCmd.AddCommand(reclaimCmd)
}

func runReclaim(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	store, err := artifact.NewStore(artifact.StoreConfig{
		Dir:    cfg.Artifacts.Dir,
		DBPath: cfg.Artifacts.SQLite.Path,
		TTL:    cfg.Artifacts.TTL,
	})
	if err != nil {
		return cli.NewStartupError("artifact store", err)
	}
	defer store.Close()

	backend, err := ledger.OpenBackend(ctx, &cfg.Quota)
	if err != nil {
		return cli.NewStartupError("quota backend", err)
	}
	usage := ledger.New(backend, nil, cfg.Quota.FreeLimit)
	defer usage.Close()

	pruner := retention.NewPruner(store, usage, &retention.Config{
		CompactAfter: cfg.Quota.CompactAfter,
	})

	reclaimed, compacted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("reclaim", err)
	}

	fmt.Printf("✓ Sweep complete: %d artifacts reclaimed, %d usage records compacted\n", reclaimed, compacted)
	return nil
}
