package scoring

import (
	"strings"

	"github.com/modelmux/quorum/internal/models"
)

// CodeConfig tunes the code scorer. Zero values are replaced by defaults in
// defaultCodeConfig, so partial overrides via params are safe.
type CodeConfig struct {
	Baseline  float64 `mapstructure:"baseline"`
	MinLength int     `mapstructure:"min_length"`
	MaxLength int     `mapstructure:"max_length"`
}

func defaultCodeConfig() CodeConfig {
	return CodeConfig{
		Baseline:  70,
		MinLength: 80,
		MaxLength: 4000,
	}
}

var typingPatterns = []string{
	": string",
	": number",
	": boolean",
	"interface ",
	"type ",
	": int",
	": float",
	"struct ",
	"<T>",
}

var errorHandlingPatterns = []string{
	"try {",
	"catch",
	"except",
	"if err != nil",
	".catch(",
	"throw ",
	"raise ",
}

var stylePatterns = []string{
	"StyleSheet.create",
	"styles.",
	"className=",
	"css`",
}

var statePatterns = []string{
	"useState",
	"useEffect",
	"useReducer",
	"useContext",
	"setState",
}

var untypedEscapePatterns = []string{
	": any",
	"as any",
	"<any>",
	"any[]",
}

// CodeScorer scores code-shaped output with structural pattern heuristics.
type CodeScorer struct {
	cfg CodeConfig
}

func (s *CodeScorer) Score(results []models.GenResult) []models.ScoredResult {
	scored := make([]models.ScoredResult, 0, len(results))
	for _, r := range results {
		scored = append(scored, models.ScoredResult{
			GenResult: r,
			Score:     s.scoreOne(r),
		})
	}
	return scored
}

func (s *CodeScorer) scoreOne(r models.GenResult) float64 {
	if r.Failed() {
		return 0
	}
	text := r.Text
	if strings.TrimSpace(text) == "" {
		return 0
	}

	score := s.cfg.Baseline

	// Explicit typing: +2 per distinct marker, capped at +8.
	if n := countDistinct(text, typingPatterns); n > 0 {
		score += min(float64(n)*2, 8)
	}

	// Declared error handling: +3 per distinct construct, capped at +6.
	if n := countDistinct(text, errorHandlingPatterns); n > 0 {
		score += min(float64(n)*3, 6)
	}

	if containsAny(text, stylePatterns) {
		score += 5
	}

	if containsAny(text, statePatterns) {
		score += 5
	}

	if hasBalancedComments(text) {
		score += 4
	}

	if len(text) >= s.cfg.MinLength && len(text) <= s.cfg.MaxLength {
		score += 4
	}

	if containsAny(text, untypedEscapePatterns) {
		score -= 8
	}

	return clampScore(score)
}

// hasBalancedComments reports whether the comment line density sits in a
// band that suggests documented-but-not-padded code.
func hasBalancedComments(text string) bool {
	lines := strings.Split(text, "\n")
	total := 0
	comments := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		total++
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			comments++
		}
	}
	if total == 0 {
		return false
	}
	density := float64(comments) / float64(total)
	return density >= 0.05 && density <= 0.30
}
