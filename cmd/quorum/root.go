package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// configPath is the --config override; empty means discover quorum.yaml by
// walking up from the working directory.
var configPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quorum",
		Short: "Quorum - ask several AI providers at once and keep the best answer",
		Long: `Quorum fans a single prompt out to multiple AI providers concurrently,
scores every response with deterministic heuristics, and selects one winner
under a configurable strategy (quality, speed, cost, balanced).

Rounds are recorded in a local history file that feeds per-provider
statistics, and the same engine is available over HTTP via 'quorum serve'.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to quorum.yaml (default: walk up from the working directory)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
