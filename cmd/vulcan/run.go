package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/artifact/retention"
	"fileworks-hq/vulcan/pkg/billing"
	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/cli"
	"fileworks-hq/vulcan/pkg/config"
	"fileworks-hq/vulcan/pkg/gateway"
	"fileworks-hq/vulcan/pkg/gateway/handlers"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/pipeline"
	"fileworks-hq/vulcan/pkg/registry"
	"fileworks-hq/vulcan/pkg/telemetry/logging"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
	"fileworks-hq/vulcan/pkg/tools/convert"
	"fileworks-hq/vulcan/pkg/tools/media"
	"fileworks-hq/vulcan/pkg/tools/summary"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vulcan gateway",
	Long: `Start the Vulcan gateway with the specified configuration.

The gateway listens on the configured address and serves tool processing
requests through the quota ledger, the capability executor, and the
artifact store.

Examples:
  # Start with default config
  vulcan run

  # Start with custom config
  vulcan run --config /etc/vulcan/config.yaml

  # Override listen address
  vulcan run --listen 0.0.0.0:8080

  # Validate config without starting the gateway
  vulcan run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Usage ledger
	backend, err := ledger.OpenBackend(ctx, &cfg.Quota)
	if err != nil {
		return cli.NewStartupError("quota backend", err)
	}

	var checker billing.Checker
	var watcher *billing.LedgerWatcher
	if cfg.Billing.OrdersPath != "" {
		orders := billing.NewOrderLedger(cfg.Billing.OrdersPath)
		checker = orders

		if cfg.Billing.Watch {
			watcher, err = billing.NewLedgerWatcher(orders, billing.DefaultDebounceInterval)
			if err != nil {
				slog.Warn("order ledger watcher unavailable, premium checks use cached reads", "error", err)
			} else {
				go func() {
					if err := watcher.Watch(ctx); err != nil {
						slog.Warn("order ledger watcher stopped", "error", err)
					}
				}()
				defer watcher.Stop()
			}
		}
	} else {
		slog.Info("no billing orders path configured, premium bypass disabled")
	}

	usage := ledger.New(backend, checker, cfg.Quota.FreeLimit)
	defer usage.Close()
	fmt.Printf("✓ Usage ledger ready (%s backend, free limit %d)\n", cfg.Quota.Backend, cfg.Quota.FreeLimit)

	// Artifact store
	store, err := artifact.NewStore(artifact.StoreConfig{
		Dir:    cfg.Artifacts.Dir,
		DBPath: cfg.Artifacts.SQLite.Path,
		TTL:    cfg.Artifacts.TTL,
	})
	if err != nil {
		return cli.NewStartupError("artifact store", err)
	}
	defer store.Close()
	fmt.Printf("✓ Artifact store ready (%s, ttl %s)\n", cfg.Artifacts.Dir, cfg.Artifacts.TTL)

	// Capability executor and tool registry
	executor := capability.NewExecutor(capability.ExecutorConfig{
		PollInterval:    cfg.Executor.PollInterval,
		PollDeadline:    cfg.Executor.PollDeadline,
		MaxPollAttempts: cfg.Executor.MaxPollAttempts,
	})

	reg, err := buildRegistry(cfg, executor)
	if err != nil {
		return cli.NewStartupError("tool registry", err)
	}
	fmt.Printf("✓ Tools registered (%d tools)\n", len(reg.IDs()))

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{
			Namespace:              cfg.Telemetry.Metrics.Namespace,
			RequestDurationBuckets: cfg.Telemetry.Metrics.RequestDurationBuckets,
		})
	}

	proc := pipeline.New(usage, reg, executor, store, collector)

	// Retention sweep
	retentionCfg := &retention.Config{
		Schedule:     cfg.Artifacts.ReclaimSchedule,
		CompactAfter: cfg.Quota.CompactAfter,
	}
	if collector != nil {
		retentionCfg.Metrics = collector.Artifacts
	}
	pruner := retention.NewPruner(store, usage, retentionCfg)
	if err := pruner.Scheduler().Start(ctx); err != nil {
		slog.Warn("failed to start reclaim scheduler", "error", err)
	} else {
		defer pruner.Scheduler().Stop()
	}

	// HTTP gateway
	var artifactMetrics *metrics.ArtifactMetrics
	if collector != nil {
		artifactMetrics = collector.Artifacts
	}
	srv := gateway.NewServer(cfg, gateway.Dependencies{
		Pipeline:  proc,
		Downloads: handlers.NewDownloadHandler(store, artifactMetrics),
		Collector: collector,
		ReadyChecks: map[string]handlers.ReadyCheck{
			"artifacts": artifactStoreCheck(store),
		},
	})

	fmt.Println()
	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// buildRegistry registers every tool whose backing service is configured.
func buildRegistry(cfg *config.Config, executor *capability.Executor) (*registry.Registry, error) {
	reg := registry.New()

	if cfg.Tools.Convert.BaseURL != "" {
		client, err := convert.NewClient(convert.ClientConfig{
			BaseURL:      cfg.Tools.Convert.BaseURL,
			TokenURL:     cfg.Tools.Convert.TokenURL,
			ClientID:     cfg.Tools.Convert.ClientID,
			ClientSecret: cfg.Tools.Convert.ClientSecret,
			Timeout:      cfg.Tools.Convert.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("convert client: %w", err)
		}

		conversions := []capability.Capability{
			convert.NewPDFToWord(client),
			convert.NewPDFToExcel(client),
			convert.NewCompressPDF(client),
			convert.NewRotatePDF(client),
			// Page rendering degrades to a placeholder preview when the
			// conversion service cannot produce one.
			capability.NewFallbackChain(executor, convert.NewPageRender(client), summary.NewPlaceholder()),
		}
		for _, c := range conversions {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	} else {
		slog.Warn("conversion service not configured, document tools disabled")
	}

	if cfg.Tools.Media.ResolverURL != "" {
		resolver, err := media.NewResolver(media.ResolverConfig{
			ResolverURL: cfg.Tools.Media.ResolverURL,
			Timeout:     cfg.Tools.Media.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("media resolver: %w", err)
		}

		for _, c := range []capability.Capability{
			media.NewYouTubeDownload(resolver),
			media.NewTikTokDownload(resolver),
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	} else {
		slog.Warn("media resolver not configured, download tools disabled")
	}

	return reg, nil
}

// artifactStoreCheck probes the metadata database for readiness.
func artifactStoreCheck(store *artifact.Store) handlers.ReadyCheck {
	return func(ctx context.Context) error {
		_, err := store.Stat(ctx, "000000000000000000000000")
		if err == nil || errors.Is(err, artifact.ErrNotFound) {
			return nil
		}
		var expired *artifact.ExpiredError
		if errors.As(err, &expired) {
			return nil
		}
		return err
	}
}
