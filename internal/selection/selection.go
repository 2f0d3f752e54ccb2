// Package selection picks a single response from a scored set according to
// a strategy. It is the sequential-path counterpart to consensus: no
// agreement math, just a deterministic reduce over valid responses.
package selection

import "github.com/modelmux/quorum/internal/models"

// Balanced blends quality, speed, and cost into one figure. Time and cost
// enter as reciprocals so faster and cheaper both push the score up; the
// +0.001 keeps zero-cost responses finite.
const (
	balancedQualityWeight = 0.6
	balancedSpeedWeight   = 0.3
	balancedCostWeight    = 0.1
)

// Select returns the best response for the strategy, considering only
// responses with a positive score. When none qualify it returns
// responses[0] as a documented fallback, and the zero value when responses
// is empty. Ties keep the first-seen response.
func Select(responses []models.ScoredResult, strategy models.Strategy) models.ScoredResult {
	if len(responses) == 0 {
		return models.ScoredResult{}
	}

	valid := make([]models.ScoredResult, 0, len(responses))
	for _, r := range responses {
		if r.Score > 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return responses[0]
	}

	switch strategy {
	case models.StrategySpeed:
		return pick(valid, func(a, b models.ScoredResult) bool {
			return a.ResponseTimeMs < b.ResponseTimeMs
		})
	case models.StrategyCost:
		return pick(valid, func(a, b models.ScoredResult) bool {
			return a.Cost < b.Cost
		})
	case models.StrategyBalanced:
		return pick(valid, func(a, b models.ScoredResult) bool {
			return balancedScore(a) > balancedScore(b)
		})
	default:
		return pick(valid, func(a, b models.ScoredResult) bool {
			return a.Score > b.Score
		})
	}
}

// pick reduces with first-seen-wins semantics: a later element replaces the
// current best only when strictly better.
func pick(responses []models.ScoredResult, better func(a, b models.ScoredResult) bool) models.ScoredResult {
	best := responses[0]
	for _, r := range responses[1:] {
		if better(r, best) {
			best = r
		}
	}
	return best
}

func balancedScore(r models.ScoredResult) float64 {
	ms := r.ResponseTimeMs
	if ms <= 0 {
		ms = 1
	}
	return r.Score*balancedQualityWeight +
		(10000/float64(ms))*balancedSpeedWeight +
		(1/(r.Cost+0.001))*balancedCostWeight
}
