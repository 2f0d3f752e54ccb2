package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/modelmux/quorum/internal/models"
)

// formatDuration renders a millisecond count compactly: "830ms" under a
// second, time.Duration formatting above.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return d.String()
}

// padRight pads s with spaces to the given display width. Width is measured
// with runewidth so rows containing glyphs like ✓ still line up.
func padRight(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

// truncate shortens s to maxLen characters, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// printRoundSummary renders the per-provider table after a run.
func printRoundSummary(result *models.OrchestrationResult) {
	header := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Println()
	header.Println(strings.Repeat("=", 70))
	header.Println(" ROUND SUMMARY")
	header.Println(strings.Repeat("=", 70))
	fmt.Println()

	sel := result.SelectedResponse
	fmt.Printf("Selected:   %s (score %.1f)\n", sel.Key(), sel.Score)
	fmt.Printf("Duration:   %s\n", formatDuration(result.TotalTime))
	fmt.Printf("Total cost: $%.4f\n", result.TotalCost)
	fmt.Println()

	fmt.Printf("  %s%s%s%s%s\n",
		padRight("Provider", 30), padRight("Score", 8), padRight("Time", 10),
		padRight("Cost", 10), "Status")
	fmt.Println("  " + strings.Repeat("-", 68))

	for _, r := range result.Responses {
		name := truncate(r.Key(), 28)
		if r.Failed() {
			fmt.Printf("  %s%s%s%s",
				padRight(name, 30), padRight("-", 8),
				padRight(formatDuration(r.ResponseTimeMs), 10), padRight("-", 10))
			red.Printf("✗ %s\n", r.Error)
			continue
		}

		status := "✓"
		if r.Key() == sel.Key() {
			status = "✓ selected"
		}
		fmt.Printf("  %s%s%s%s",
			padRight(name, 30),
			padRight(fmt.Sprintf("%.1f", r.Score), 8),
			padRight(formatDuration(r.ResponseTimeMs), 10),
			padRight(fmt.Sprintf("$%.4f", r.Cost), 10))
		green.Println(status)
	}
	fmt.Println()
}

// FormatGitHubComment formats a completed round as a markdown comment for
// GitHub PRs.
func FormatGitHubComment(result *models.OrchestrationResult) string {
	var b strings.Builder

	failed := 0
	for _, r := range result.Responses {
		if r.Failed() {
			failed++
		}
	}

	// Header with overall status
	b.WriteString("## 🤖 Quorum Round Results\n\n")

	statusIcon := "✅ Completed"
	if failed > 0 {
		statusIcon = fmt.Sprintf("⚠️ %d provider(s) failed", failed)
	}

	sel := result.SelectedResponse
	b.WriteString(fmt.Sprintf("**Status:** %s | **Selected:** %s | **Score:** %.1f | **Duration:** %s\n\n",
		statusIcon, sel.Key(), sel.Score, formatDuration(result.TotalTime)))

	// Summary stats
	prompt := strings.Join(strings.Fields(result.Prompt), " ")
	b.WriteString(fmt.Sprintf("- **Providers:** %d called, %d answered, %d failed\n",
		len(result.Responses), len(result.Responses)-failed, failed))
	b.WriteString(fmt.Sprintf("- **Total Cost:** $%.4f\n", result.TotalCost))
	b.WriteString(fmt.Sprintf("- **Prompt:** %s\n\n", truncate(prompt, 80)))

	// Per-provider breakdown table
	b.WriteString("### Provider Results\n\n")
	b.WriteString("| Provider | Score | Time | Cost | Status |\n")
	b.WriteString("|----------|-------|------|------|--------|\n")

	for _, r := range result.Responses {
		if r.Failed() {
			b.WriteString(fmt.Sprintf("| %s | - | %s | - | ❌ |\n",
				r.Key(), formatDuration(r.ResponseTimeMs)))
			continue
		}

		status := "✅"
		if r.Key() == sel.Key() {
			status = "✅ selected"
		}
		b.WriteString(fmt.Sprintf("| %s | %.1f | %s | $%.4f | %s |\n",
			r.Key(), r.Score, formatDuration(r.ResponseTimeMs), r.Cost, status))
	}
	b.WriteString("\n")

	// Error details for failed providers
	if failed > 0 {
		b.WriteString("### ⚠️ Failed Providers\n\n")
		for _, r := range result.Responses {
			if r.Failed() {
				b.WriteString(fmt.Sprintf("- **%s**: %s\n", r.Key(), r.Error))
			}
		}
		b.WriteString("\n")
	}

	// Footer with metadata
	b.WriteString("---\n\n")
	b.WriteString(fmt.Sprintf("**Round:** %s | **Created:** %s\n",
		result.ID, result.CreatedAt.Format(time.RFC3339)))

	return b.String()
}

// printStatsTable renders per-provider aggregates from history.
func printStatsTable(stats map[string]models.ModelStats) {
	if len(stats) == 0 {
		fmt.Println("No history yet. Run 'quorum run \"<prompt>\"' to record a round.")
		return
	}

	providers := make([]string, 0, len(stats))
	for id := range stats {
		providers = append(providers, id)
	}
	sort.Strings(providers)

	header := color.New(color.FgCyan, color.Bold)
	header.Println(strings.Repeat("=", 70))
	header.Println(" PROVIDER STATS")
	header.Println(strings.Repeat("=", 70))
	fmt.Println()

	fmt.Printf("  %s%s%s%s%s%s\n",
		padRight("Provider", 14), padRight("Requests", 10), padRight("Avg Quality", 13),
		padRight("Avg Time", 12), padRight("Total Cost", 12), "Selected")
	fmt.Println("  " + strings.Repeat("-", 68))

	for _, id := range providers {
		s := stats[id]
		fmt.Printf("  %s%s%s%s%s%d\n",
			padRight(id, 14),
			padRight(fmt.Sprintf("%d", s.TotalRequests), 10),
			padRight(fmt.Sprintf("%.1f", s.AvgQuality), 13),
			padRight(formatDuration(int64(s.AvgResponseTime)), 12),
			padRight(fmt.Sprintf("$%.4f", s.TotalCost), 12),
			s.TimesSelected)
	}
	fmt.Println()
}
