// Package consensus reduces a scored result set to a single winner with
// agreement and confidence measures. Building consensus never fails: an
// all-error round produces a zero-confidence result with no winner rather
// than an error, so callers decide the fallback policy.
package consensus

import (
	"fmt"

	"github.com/modelmux/quorum/internal/models"
)

// Confidence blends quality, agreement, and participation. Weights sum to 1
// so the result stays in [0,1] without rescaling.
const (
	meanScoreWeight    = 0.5
	agreementWeight    = 0.3
	contributionWeight = 0.2
)

// Build picks the winning result and computes agreement and confidence over
// the full scored set. Error-status entries never win and never count as
// agreeing, but they still dilute agreement and contribution.
func Build(scored []models.ScoredResult) models.ConsensusResult {
	contributors := make([]models.ScoredResult, 0, len(scored))
	for _, s := range scored {
		if !s.Failed() {
			contributors = append(contributors, s)
		}
	}

	if len(contributors) == 0 {
		return models.ConsensusResult{
			Reasoning: "no successful responses",
		}
	}

	winner := pickWinner(contributors)

	if len(contributors) == 1 {
		return models.ConsensusResult{
			Winner:     &winner,
			Agreement:  1.0,
			Confidence: winner.Score / 100,
			Reasoning:  fmt.Sprintf("%s was the only successful response (score %.1f)", winner.Key(), winner.Score),
		}
	}

	agreeing := 0
	for _, s := range scored {
		if similar(s, winner) {
			agreeing++
		}
	}
	agreement := float64(agreeing) / float64(len(scored))

	meanScore := 0.0
	for _, c := range contributors {
		meanScore += c.Score
	}
	meanScore /= float64(len(contributors))

	contribution := float64(len(contributors)) / float64(len(scored))

	confidence := clamp01(meanScoreWeight*meanScore/100 +
		agreementWeight*agreement +
		contributionWeight*contribution)

	return models.ConsensusResult{
		Winner:     &winner,
		Agreement:  agreement,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("%s led with score %.1f; %d of %d responses agreed", winner.Key(), winner.Score, agreeing, len(scored)),
	}
}

// pickWinner returns the best contributor under the total ordering: highest
// score, then lowest response time, then provider id lexicographic.
func pickWinner(contributors []models.ScoredResult) models.ScoredResult {
	winner := contributors[0]
	for _, c := range contributors[1:] {
		if beats(c, winner) {
			winner = c
		}
	}
	return winner
}

func beats(a, b models.ScoredResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ResponseTimeMs != b.ResponseTimeMs {
		return a.ResponseTimeMs < b.ResponseTimeMs
	}
	return a.Provider < b.Provider
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
