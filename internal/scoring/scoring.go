// Package scoring turns free-text provider output into comparable scalar
// scores. Scoring is pure and deterministic: the same text and task type
// always produce the same score, with no randomness or wall-clock input.
//
// Scorers are created through a factory keyed by task type so the heuristics
// for one task can be replaced without touching the orchestrator or the
// consensus builder.
package scoring

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/modelmux/quorum/internal/models"
)

// Scorer assigns a quality score in [0,100] to every result in a set.
// Error-status results always score 0.
type Scorer interface {
	Score(results []models.GenResult) []models.ScoredResult
}

// Create builds the scorer for a task type. params are decoded onto the
// scorer's config, overriding defaults; nil params keep all defaults.
func Create(taskType models.TaskType, params map[string]any) (Scorer, error) {
	switch taskType {
	case models.TaskCode:
		cfg := defaultCodeConfig()
		if err := mapstructure.Decode(params, &cfg); err != nil {
			return nil, fmt.Errorf("decoding code scorer params: %w", err)
		}
		return &CodeScorer{cfg: cfg}, nil
	case models.TaskText:
		cfg := defaultTextConfig()
		if err := mapstructure.Decode(params, &cfg); err != nil {
			return nil, fmt.Errorf("decoding text scorer params: %w", err)
		}
		return &TextScorer{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%q is not a valid task type", taskType)
	}
}

// ScoreResults scores a result set with the default scorer for taskType.
func ScoreResults(results []models.GenResult, taskType models.TaskType) ([]models.ScoredResult, error) {
	s, err := Create(taskType, nil)
	if err != nil {
		return nil, err
	}
	return s.Score(results), nil
}

func containsAny(text string, patterns []string) bool {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// countDistinct returns how many of the patterns appear at least once.
func countDistinct(text string, patterns []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			count++
		}
	}
	return count
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
