package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelmux/quorum/internal/models"
)

func response(provider string, score float64, timeMs int64, cost float64) models.ScoredResult {
	return models.ScoredResult{
		GenResult: models.GenResult{
			Provider:       provider,
			Model:          provider + "-1",
			Status:         models.StatusOK,
			Text:           "output from " + provider,
			ResponseTimeMs: timeMs,
			Cost:           cost,
		},
		Score: score,
	}
}

func TestSelectByStrategy(t *testing.T) {
	responses := []models.ScoredResult{
		response("alpha", 90, 2000, 0.02),
		response("beta", 85, 1000, 0.01),
		response("gamma", 70, 3000, 0.005),
	}

	tests := []struct {
		strategy models.Strategy
		want     string
	}{
		{models.StrategyQuality, "alpha"},
		{models.StrategySpeed, "beta"},
		{models.StrategyCost, "gamma"},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			got := Select(responses, tt.strategy)
			assert.Equal(t, tt.want, got.Provider)
		})
	}
}

func TestSelectBalancedPrefersFasterCheaper(t *testing.T) {
	// alpha: 90*0.6 + (10000/2000)*0.3 + (1/0.021)*0.1 ≈ 60.3
	// beta:  85*0.6 + (10000/1000)*0.3 + (1/0.011)*0.1 ≈ 63.1
	got := Select([]models.ScoredResult{
		response("alpha", 90, 2000, 0.02),
		response("beta", 85, 1000, 0.01),
	}, models.StrategyBalanced)

	assert.Equal(t, "beta", got.Provider)
}

func TestSelectFirstSeenWinsTies(t *testing.T) {
	responses := []models.ScoredResult{
		response("alpha", 90, 1000, 0.01),
		response("beta", 90, 1000, 0.01),
	}

	for _, strategy := range []models.Strategy{
		models.StrategyQuality,
		models.StrategySpeed,
		models.StrategyCost,
		models.StrategyBalanced,
	} {
		got := Select(responses, strategy)
		assert.Equal(t, "alpha", got.Provider, "strategy %s", strategy)
	}
}

func TestSelectSkipsZeroScores(t *testing.T) {
	responses := []models.ScoredResult{
		response("broken", 0, 1, 0),
		response("working", 45, 5000, 0.05),
	}

	got := Select(responses, models.StrategySpeed)
	assert.Equal(t, "working", got.Provider)
}

func TestSelectAllZeroScoresFallsBackToFirst(t *testing.T) {
	responses := []models.ScoredResult{
		response("alpha", 0, 2000, 0.02),
		response("beta", 0, 1000, 0.01),
	}

	got := Select(responses, models.StrategyQuality)
	assert.Equal(t, "alpha", got.Provider)
}

func TestSelectEmptyInput(t *testing.T) {
	got := Select(nil, models.StrategyQuality)
	assert.Equal(t, models.ScoredResult{}, got)
}

func TestBalancedScoreGuardsZeroTime(t *testing.T) {
	r := response("instant", 80, 0, 0.01)
	score := balancedScore(r)
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
	assert.Greater(t, score, 0.0)
}
