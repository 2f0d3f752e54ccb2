package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modelmux/quorum/internal/cache"
	"github.com/modelmux/quorum/internal/history"
	"github.com/modelmux/quorum/internal/limiter"
	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/orchestration"
	"github.com/modelmux/quorum/internal/reporting"
	"github.com/modelmux/quorum/internal/spinner"
)

var (
	runModels      []string
	runStrategy    string
	runTaskType    string
	runSystem      string
	runTimeoutMs   int
	runConcurrency int
	runOffline     bool
	runEnableCache bool
	runOutputPath  string
	runQuiet       bool
	runInterpret   bool
	runFormat      string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Send one prompt to multiple providers and keep the best answer",
		Long: `Send one prompt to every requested provider concurrently, score the
responses, and select a winner under the configured strategy.

Providers come from --models, falling back to defaults.models in quorum.yaml.
The selected response text is printed first; --quiet suppresses everything
else, which makes the output easy to pipe. The round is recorded in history
unless it failed entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringSliceVarP(&runModels, "models", "m", nil, "Providers to call (comma-separated: openai, anthropic, copilot, static)")
	cmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "Selection strategy: quality, speed, cost, balanced")
	cmd.Flags().StringVar(&runTaskType, "task", "", "Task type for scoring: code or text (default: inferred from the prompt)")
	cmd.Flags().StringVar(&runSystem, "system", "", "System prompt sent to every provider")
	cmd.Flags().IntVar(&runTimeoutMs, "timeout", 0, "Per-provider timeout in milliseconds (default: 30000)")
	cmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Maximum concurrent provider calls (default: 3)")
	cmd.Flags().BoolVar(&runOffline, "offline", false, "Replace every provider with a canned offline adapter")
	cmd.Flags().BoolVar(&runEnableCache, "cache", false, "Cache rounds and reuse them for identical requests")
	cmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "Write the full round result to a JSON file")
	cmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Print only the selected response text")
	cmd.Flags().BoolVar(&runInterpret, "interpret", false, "Print a plain-language interpretation of the round")
	cmd.Flags().StringVar(&runFormat, "format", "default", "Output format: default, github-comment")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	prompt := args[0]

	if runFormat != "default" && runFormat != "github-comment" {
		return fmt.Errorf("unknown output format: %s (supported: default, github-comment)", runFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// CLI flags override config
	if runStrategy != "" {
		cfg.Defaults.Strategy = runStrategy
	}
	if runTaskType != "" {
		cfg.Defaults.TaskType = runTaskType
	}
	if runTimeoutMs > 0 {
		cfg.Orchestrator.TimeoutMs = runTimeoutMs
	}
	if runConcurrency > 0 {
		cfg.Orchestrator.MaxConcurrent = runConcurrency
	}

	providerIDs := normalizeProviderIDs(cfg.Defaults.Models)
	if len(runModels) > 0 {
		providerIDs = normalizeProviderIDs(runModels)
	}

	registry, err := buildRegistry(cfg, providerIDs, runOffline)
	if err != nil {
		return err
	}

	orchOpts := []orchestration.Option{
		orchestration.WithTimeout(cfg.Timeout()),
		orchestration.WithLimiter(limiter.New(cfg.Orchestrator.MaxConcurrent)),
	}
	if runEnableCache || cfg.CacheEnabled() {
		absDir, err := filepath.Abs(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		orchOpts = append(orchOpts, orchestration.WithCache(cache.New(absDir)))
	}

	orch := orchestration.New(registry, orchOpts...)
	orch.OnProgress(debugProgressListener)

	// Spinner only when stderr is a terminal, so piped and scripted runs
	// stay clean.
	var spin *spinner.Spinner
	if !runQuiet && term.IsTerminal(int(os.Stderr.Fd())) {
		spin = spinner.Start(os.Stderr, fmt.Sprintf("calling %d provider(s)", len(providerIDs)))
		defer spin.Stop()
		orch.OnProgress(spinnerProgressListener(spin))
	}

	svc := orchestration.NewService(orch, history.NewStore(cfg.History.Path))

	result, err := svc.OrchestrateGeneration(cmd.Context(), orchestration.Request{
		Prompt:            prompt,
		Models:            providerIDs,
		SelectionStrategy: cfg.Defaults.Strategy,
		SystemPrompt:      runSystem,
		TaskType:          cfg.Defaults.TaskType,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if runFormat == "github-comment" {
		fmt.Print(FormatGitHubComment(result))
	} else {
		fmt.Println(result.SelectedResponse.Text)

		if !runQuiet {
			printRoundSummary(result)

			if runInterpret {
				fmt.Println()
				fmt.Print(reporting.FormatRoundReport(result))
			}
		}
	}

	if runOutputPath != "" {
		if err := saveResult(result, runOutputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		if !runQuiet {
			fmt.Printf("\nResults saved to: %s\n", runOutputPath)
		}
	}

	return nil
}

// spinnerProgressListener keeps the spinner line current as providers settle.
func spinnerProgressListener(spin *spinner.Spinner) orchestration.ProgressListener {
	var done atomic.Int32
	return func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventRoundCached:
			spin.Update("round served from cache")
		case orchestration.EventProviderCompleted, orchestration.EventProviderFailed:
			spin.Update(fmt.Sprintf("%d of %d providers done", done.Add(1), event.TotalProviders))
		case orchestration.EventScoringStarted:
			spin.Update("scoring responses")
		}
	}
}

// debugProgressListener mirrors progress events into the structured log;
// visible with --debug.
func debugProgressListener(event orchestration.ProgressEvent) {
	args := []any{
		"event", string(event.EventType),
	}
	if event.Provider != "" {
		args = append(args, "provider", event.Provider, "model", event.Model)
	}
	if event.DurationMs > 0 {
		args = append(args, "durationMs", event.DurationMs)
	}
	if event.Err != "" {
		args = append(args, "error", event.Err)
	}
	slog.Debug("orchestration progress", args...)
}

func saveResult(result *models.OrchestrationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
