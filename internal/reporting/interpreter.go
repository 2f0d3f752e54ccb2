package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/modelmux/quorum/internal/models"
)

// InterpretScore returns a plain-language label for a quality score (0-100).
func InterpretScore(score float64) string {
	switch {
	case score > 90:
		return "Excellent (>90)"
	case score >= 70:
		return "Good (70-90)"
	case score >= 50:
		return "Fair (50-70)"
	default:
		return "Poor (<50)"
	}
}

// InterpretAgreement returns a human-readable explanation of an agreement
// ratio (0-1).
func InterpretAgreement(agreement float64) string {
	pct := agreement * 100
	switch {
	case pct >= 100:
		return fmt.Sprintf("All providers agreed (%.0f%%)", pct)
	case pct >= 67:
		return fmt.Sprintf("Most providers agreed (%.0f%%)", pct)
	case pct >= 34:
		return fmt.Sprintf("Providers were split (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Providers disagreed (%.0f%%)", pct)
	}
}

// InterpretErrors explains how many provider calls failed and what that
// meant for the round.
func InterpretErrors(failed, total int) string {
	switch {
	case failed == 0:
		return "Every provider responded."
	case failed == total:
		return "Every provider failed."
	default:
		return fmt.Sprintf("%d of %d providers failed without delaying the others.", failed, total)
	}
}

// FormatRoundReport produces a full plain-language report for one round.
func FormatRoundReport(result *models.OrchestrationResult) string {
	var b strings.Builder

	sel := result.SelectedResponse
	duration := time.Duration(result.TotalTime) * time.Millisecond

	b.WriteString("=== Round Summary ===\n\n")
	b.WriteString(fmt.Sprintf("Selected: %s\n", sel.Key()))
	b.WriteString(fmt.Sprintf("Score:    %.1f — %s\n", sel.Score, InterpretScore(sel.Score)))
	b.WriteString(fmt.Sprintf("Duration: %v\n", duration))
	b.WriteString(fmt.Sprintf("Cost:     $%.4f\n", result.TotalCost))

	if len(result.Responses) > 0 {
		b.WriteString("\nResponses:\n")
		failed := 0
		for _, r := range result.Responses {
			if r.Failed() {
				failed++
				b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", r.Key(), r.Error))
				continue
			}
			b.WriteString(fmt.Sprintf("  ✓ %s: %.1f — %s (%dms, $%.4f)\n",
				r.Key(), r.Score, InterpretScore(r.Score), r.ResponseTimeMs, r.Cost))
		}
		b.WriteString("\n" + InterpretErrors(failed, len(result.Responses)) + "\n")
	}

	return b.String()
}
