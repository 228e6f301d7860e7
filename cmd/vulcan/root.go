package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fileworks-hq/vulcan/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vulcan",
	Short: "Vulcan - file and URL processing gateway",
	Long: `Vulcan is a processing gateway for document and media tools.

It exposes one HTTP surface over a set of conversion and download tools,
providing:
  - Per-client free usage quotas with premium bypass
  - Immediate, polled, and fallback-chained tool execution
  - Ephemeral artifact storage with TTL-based download links
  - Prometheus metrics and structured logging`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	// Local development secrets live in .env; a missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
