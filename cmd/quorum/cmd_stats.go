package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsFormat string

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-provider aggregates from recorded history",
		Long: `Show per-provider aggregates over the retained history window: request
count, average quality, average response time, total cost, and how many
rounds each provider won. Failed calls count at score 0 and cost 0.`,
		Args: cobra.NoArgs,
		RunE: statsCommandE,
	}

	cmd.Flags().StringVarP(&statsFormat, "format", "f", "table", "Output format: table or json")

	return cmd
}

func statsCommandE(cmd *cobra.Command, args []string) error {
	if statsFormat != "table" && statsFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", statsFormat)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	stats := store.Stats()

	if statsFormat == "json" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printStatsTable(stats)
	return nil
}
