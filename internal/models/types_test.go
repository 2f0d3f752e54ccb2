package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"quality", StrategyQuality, false},
		{"speed", StrategySpeed, false},
		{"cost", StrategyCost, false},
		{"balanced", StrategyBalanced, false},
		{"  Quality ", StrategyQuality, false},
		{"BALANCED", StrategyBalanced, false},
		{"", StrategyQuality, true},
		{"fastest", StrategyQuality, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTaskType(t *testing.T) {
	got, err := ParseTaskType("CODE")
	require.NoError(t, err)
	assert.Equal(t, TaskCode, got)

	got, err = ParseTaskType("text")
	require.NoError(t, err)
	assert.Equal(t, TaskText, got)

	_, err = ParseTaskType("poetry")
	require.Error(t, err)
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindCode, DetectKind("here you go:\n```go\nfunc main() {}\n```"))
	assert.Equal(t, KindText, DetectKind("The capital of France is Paris."))
}

func TestGenResultKey(t *testing.T) {
	r := GenResult{Provider: "openai", Model: "gpt-4o"}
	assert.Equal(t, "openai/gpt-4o", r.Key())
}

func TestModelStatsObserve(t *testing.T) {
	var s ModelStats
	s.Observe(80, 1000, 0.01)
	s.Observe(90, 2000, 0.02)
	s.Observe(70, 3000, 0.03)

	assert.Equal(t, 3, s.TotalRequests)
	assert.InDelta(t, 80.0, s.AvgQuality, 1e-9)
	assert.InDelta(t, 2000.0, s.AvgResponseTime, 1e-9)
	assert.InDelta(t, 0.06, s.TotalCost, 1e-9)
	assert.Equal(t, 0, s.TimesSelected)

	s.MarkSelected()
	assert.Equal(t, 1, s.TimesSelected)
}

func TestOrchestrationResultJSONDatesAreISO8601(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	res := OrchestrationResult{
		ID:        "round-1",
		Prompt:    "hello",
		Models:    []string{"alpha"},
		CreatedAt: created,
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt":"2026-03-14T09:26:53Z"`)

	var back OrchestrationResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.CreatedAt.Equal(created))
}
