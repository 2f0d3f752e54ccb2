package scoring

import (
	"strings"

	"github.com/modelmux/quorum/internal/models"
)

// TextConfig tunes the prose scorer.
type TextConfig struct {
	Baseline  float64 `mapstructure:"baseline"`
	MinLength int     `mapstructure:"min_length"`
	MaxLength int     `mapstructure:"max_length"`
}

func defaultTextConfig() TextConfig {
	return TextConfig{
		Baseline:  60,
		MinLength: 100,
		MaxLength: 5000,
	}
}

var fillerPatterns = []string{
	"as an ai",
	"i cannot assist",
	"i'm sorry, but",
	"lorem ipsum",
}

// TextScorer scores prose output on structure and variety.
type TextScorer struct {
	cfg TextConfig
}

func (s *TextScorer) Score(results []models.GenResult) []models.ScoredResult {
	scored := make([]models.ScoredResult, 0, len(results))
	for _, r := range results {
		scored = append(scored, models.ScoredResult{
			GenResult: r,
			Score:     s.scoreOne(r),
		})
	}
	return scored
}

func (s *TextScorer) scoreOne(r models.GenResult) float64 {
	if r.Failed() {
		return 0
	}
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return 0
	}

	score := s.cfg.Baseline

	if countParagraphs(text) >= 2 {
		score += 8
	}

	if avg := avgSentenceLength(text); avg >= 8 && avg <= 30 {
		score += 8
	}

	if vocabularyVariety(text) >= 0.5 {
		score += 8
	}

	if len(text) >= s.cfg.MinLength && len(text) <= s.cfg.MaxLength {
		score += 8
	}

	if containsAny(text, fillerPatterns) {
		score -= 10
	}

	return clampScore(score)
}

func countParagraphs(text string) int {
	parts := strings.Split(text, "\n\n")
	count := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

// avgSentenceLength returns the mean word count per sentence.
func avgSentenceLength(text string) float64 {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	totalWords := 0
	totalSentences := 0
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) == 0 {
			continue
		}
		totalWords += len(words)
		totalSentences++
	}
	if totalSentences == 0 {
		return 0
	}
	return float64(totalWords) / float64(totalSentences)
}

// vocabularyVariety is the ratio of distinct words to total words.
func vocabularyVariety(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.Trim(w, ".,!?;:\"'()")] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}
