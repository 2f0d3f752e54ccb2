package main

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modelmux/quorum/internal/consensus"
	"github.com/modelmux/quorum/internal/history"
	"github.com/modelmux/quorum/internal/limiter"
	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/orchestration"
	"github.com/modelmux/quorum/internal/reporting"
	"github.com/modelmux/quorum/internal/scoring"
	"github.com/modelmux/quorum/internal/statistics"
)

var (
	compareProviders []string
	compareTaskType  string
	compareOffline   bool
	compareFormat    string
	compareJUnitPath string
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <prompt>",
		Short: "Run one prompt across providers and compare the responses",
		Long: `Run one prompt across every requested provider concurrently and print a
side-by-side comparison: score, response time, cost, and token usage per
provider, plus agreement across the set.

Each provider's row also carries its quality aggregates from recorded
history (mean, standard deviation, and a 95% bootstrap confidence interval),
so a one-off comparison can be read against the longer track record. The
comparison itself is not recorded.

--junit-output writes the round as a JUnit XML file for CI, whatever the
stdout format.`,
		Args: cobra.ExactArgs(1),
		RunE: compareCommandE,
	}

	cmd.Flags().StringSliceVarP(&compareProviders, "models", "m", nil, "Providers to compare (comma-separated)")
	cmd.Flags().StringVar(&compareTaskType, "task", "", "Task type for scoring: code or text (default: inferred from the prompt)")
	cmd.Flags().BoolVar(&compareOffline, "offline", false, "Replace every provider with a canned offline adapter")
	cmd.Flags().StringVarP(&compareFormat, "format", "f", "table", "Output format: table, json, or junit")
	cmd.Flags().StringVar(&compareJUnitPath, "junit-output", "", "Write JUnit XML to this path in addition to stdout output")

	return cmd
}

// providerComparison is one provider's row: the fresh result plus quality
// aggregates from recorded history. Rounds is 0 when the provider has no
// history yet, in which case the interval collapses to the lone score.
type providerComparison struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Score    float64 `json:"score"`
	TimeMs   int64   `json:"time_ms"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost"`
	Error    string  `json:"error,omitempty"`

	Rounds    int     `json:"history_rounds"`
	MeanScore float64 `json:"history_mean"`
	StdDev    float64 `json:"history_stddev"`
	CI95Lower float64 `json:"ci95_lower"`
	CI95Upper float64 `json:"ci95_upper"`
}

// comparisonReport is the full comparison output.
type comparisonReport struct {
	Prompt     string               `json:"prompt"`
	TaskType   string               `json:"task_type"`
	Best       string               `json:"best,omitempty"`
	Agreement  float64              `json:"agreement"`
	Confidence float64              `json:"confidence"`
	Reasoning  string               `json:"reasoning"`
	Providers  []providerComparison `json:"providers"`
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	if compareFormat != "table" && compareFormat != "json" && compareFormat != "junit" {
		return fmt.Errorf("unsupported format %q: must be table, json, or junit", compareFormat)
	}

	prompt := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	taskType := scoring.DetectTaskType(prompt)
	if compareTaskType != "" {
		taskType, err = models.ParseTaskType(compareTaskType)
		if err != nil {
			return err
		}
	}

	providerIDs := normalizeProviderIDs(cfg.Defaults.Models)
	if len(compareProviders) > 0 {
		providerIDs = normalizeProviderIDs(compareProviders)
	}

	registry, err := buildRegistry(cfg, providerIDs, compareOffline)
	if err != nil {
		return err
	}

	orch := orchestration.New(registry,
		orchestration.WithTimeout(cfg.Timeout()),
		orchestration.WithLimiter(limiter.New(cfg.Orchestrator.MaxConcurrent)),
	)
	orch.OnProgress(debugProgressListener)

	svc := orchestration.NewService(orch, history.NewStore(cfg.History.Path))

	results, err := svc.CompareModels(cmd.Context(), prompt, providerIDs, taskType)
	if err != nil {
		return err
	}

	report := buildComparisonReport(prompt, taskType, results, svc.History())

	if compareJUnitPath != "" {
		suites := reporting.ConvertToJUnit("quorum compare", results, time.Now().UTC())
		if err := reporting.WriteJUnitXML(suites, compareJUnitPath); err != nil {
			return fmt.Errorf("failed to write JUnit output: %w", err)
		}
	}

	switch compareFormat {
	case "json":
		if err := printComparisonJSON(report); err != nil {
			return err
		}
	case "junit":
		if err := printComparisonJUnit(results); err != nil {
			return err
		}
	default:
		printComparisonTable(report)
	}

	if compareJUnitPath != "" && compareFormat != "junit" {
		fmt.Printf("JUnit results saved to: %s\n", compareJUnitPath)
	}

	return nil
}

func buildComparisonReport(prompt string, taskType models.TaskType, results []models.ScoredResult, hist *history.Store) *comparisonReport {
	cons := consensus.Build(results)

	report := &comparisonReport{
		Prompt:     prompt,
		TaskType:   string(taskType),
		Agreement:  cons.Agreement,
		Confidence: cons.Confidence,
		Reasoning:  cons.Reasoning,
	}
	if cons.Winner != nil {
		report.Best = cons.Winner.Key()
	}

	for _, r := range results {
		pc := providerComparison{
			Provider: r.Provider,
			Model:    r.Model,
			Score:    r.Score,
			TimeMs:   r.ResponseTimeMs,
			Tokens:   r.TokensUsed,
			Cost:     r.Cost,
			Error:    r.Error,
		}

		scores := historyScores(hist, r.Provider)
		pc.Rounds = len(scores)
		if pc.Rounds > 0 {
			ci := statistics.BootstrapCI(scores, 0.95)
			pc.MeanScore = ci.Mean
			pc.StdDev = statistics.StdDev(scores)
			pc.CI95Lower = ci.Lower
			pc.CI95Upper = ci.Upper
		}

		report.Providers = append(report.Providers, pc)
	}

	return report
}

// historyScores collects every recorded score for one provider, failed
// responses included at 0, matching the stats fold.
func historyScores(hist *history.Store, provider string) []float64 {
	var scores []float64
	for _, round := range hist.List(0) {
		for _, r := range round.Responses {
			if r.Provider == provider {
				scores = append(scores, r.Score)
			}
		}
	}
	return scores
}

func printComparisonTable(r *comparisonReport) {
	header := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	header.Println(strings.Repeat("=", 76))
	header.Println(" PROVIDER COMPARISON")
	header.Println(strings.Repeat("=", 76))
	fmt.Println()

	if r.Best != "" {
		fmt.Printf("Best:      %s\n", r.Best)
	}
	fmt.Printf("Agreement: %s\n", reporting.InterpretAgreement(r.Agreement))
	fmt.Printf("Task type: %s\n", r.TaskType)
	fmt.Println()

	fmt.Printf("  %s%s%s%s%s%s\n",
		padRight("Provider", 26), padRight("Score", 8), padRight("Time", 10),
		padRight("Cost", 10), padRight("Tokens", 8), "Status")
	fmt.Println("  " + strings.Repeat("-", 74))

	for _, pc := range r.Providers {
		name := truncate(pc.Provider+"/"+pc.Model, 24)
		if pc.Error != "" {
			fmt.Printf("  %s%s%s%s%s",
				padRight(name, 26), padRight("-", 8),
				padRight(formatDuration(pc.TimeMs), 10), padRight("-", 10), padRight("-", 8))
			red.Printf("✗ %s\n", pc.Error)
			continue
		}

		status := "✓"
		if pc.Provider+"/"+pc.Model == r.Best {
			status = "✓ best"
		}
		fmt.Printf("  %s%s%s%s%s",
			padRight(name, 26),
			padRight(fmt.Sprintf("%.1f", pc.Score), 8),
			padRight(formatDuration(pc.TimeMs), 10),
			padRight(fmt.Sprintf("$%.4f", pc.Cost), 10),
			padRight(fmt.Sprintf("%d", pc.Tokens), 8))
		green.Println(status)
	}
	fmt.Println()

	// History-backed quality per provider
	fmt.Println("  " + strings.Repeat("-", 74))
	fmt.Println("  Quality from history (95% bootstrap CI)")
	fmt.Println("  " + strings.Repeat("-", 74))
	for _, pc := range r.Providers {
		if pc.Rounds == 0 {
			fmt.Printf("  %sno recorded rounds yet\n", padRight(pc.Provider, 14))
			continue
		}
		fmt.Printf("  %s%s±%-7.1f CI95=[%.1f, %.1f]  n=%d\n",
			padRight(pc.Provider, 14),
			padRight(fmt.Sprintf("%.1f", pc.MeanScore), 6),
			pc.StdDev, pc.CI95Lower, pc.CI95Upper, pc.Rounds)
	}
	fmt.Println()
}

func printComparisonJSON(r *comparisonReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printComparisonJUnit(results []models.ScoredResult) error {
	suites := reporting.ConvertToJUnit("quorum compare", results, time.Now().UTC())
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	fmt.Print(xml.Header)
	fmt.Println(string(data))
	return nil
}
