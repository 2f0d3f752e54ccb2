package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelmux/quorum/internal/history"
)

var historyLimit int

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded orchestration rounds",
		Long: `Inspect the round history. The store keeps the most recent rounds; older
ones are evicted as new rounds are recorded.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// openHistory loads the config and opens the round store it points at. Also
// used by the stats command.
func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History.Path), nil
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded rounds, newest first",
		Args:  cobra.NoArgs,
		RunE:  historyListE,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum rounds to list (0 = all retained)")

	return cmd
}

func historyListE(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	rounds := store.List(historyLimit)
	if len(rounds) == 0 {
		fmt.Println("No rounds recorded yet.")
		return nil
	}

	for _, r := range rounds {
		fmt.Printf("%s  %s  %s (%.1f)  $%.4f  %q\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.SelectedResponse.Key(),
			r.SelectedResponse.Score,
			r.TotalCost,
			truncate(r.Prompt, 48))
	}
	return nil
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recorded round as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  historyShowE,
	}
}

func historyShowE(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	round, err := store.Get(args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(round, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded round",
		Args:  cobra.NoArgs,
		RunE:  historyClearE,
	}
}

func historyClearE(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	fmt.Println("History cleared.")
	return nil
}
