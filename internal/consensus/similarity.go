package consensus

import (
	"strings"

	"github.com/modelmux/quorum/internal/models"
)

// Two outputs agree when their lengths are in the same ballpark and they
// share a meaningful fraction of vocabulary. Both gates must pass.
const (
	minLengthRatio  = 0.5
	minTokenOverlap = 0.3
)

// similar reports whether a's output agrees with the winner's. Error-status
// results are never similar to anything.
func similar(a, winner models.ScoredResult) bool {
	if a.Failed() || winner.Failed() {
		return false
	}
	if lengthRatio(a.Text, winner.Text) < minLengthRatio {
		return false
	}
	return tokenOverlap(a.Text, winner.Text) >= minTokenOverlap
}

// lengthRatio is shorter/longer in [0,1]. Two empty strings are identical,
// so the ratio is 1.
func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 1
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

// tokenOverlap is the Jaccard index over lowercased word sets.
func tokenOverlap(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()`")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
