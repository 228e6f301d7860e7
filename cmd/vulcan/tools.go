package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/cli"
	"fileworks-hq/vulcan/pkg/config"
)

var toolsFlags struct {
	output string
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Long: `List the tool IDs the gateway would register with the current
configuration. Tools whose backing service is not configured are omitted.

Examples:
  # Plain list
  vulcan tools

  # JSON output
  vulcan tools --output json`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	toolsCmd.Flags().StringVarP(&toolsFlags.output, "output", "o", "text", "output format (text, json)")
}

func runTools(cmd *cobra.Command, args []string) error {
	// A missing config file still yields the default tool set.
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}

	executor := capability.NewExecutor(capability.ExecutorConfig{})
	reg, err := buildRegistry(cfg, executor)
	if err != nil {
		return cli.NewCommandError("tools", err)
	}

	formatter, err := cli.NewFormatter(cli.OutputFormat(toolsFlags.output))
	if err != nil {
		return cli.NewCommandError("tools", err)
	}

	ids := reg.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no tools registered; configure tools.convert or tools.media")
	}
	return formatter.FormatTo(os.Stdout, ids)
}
