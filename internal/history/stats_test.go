package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/quorum/internal/models"
)

func TestStatsAggregatesAcrossRounds(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, store.Append(round("r1", 0,
		scored("alpha", 80, 100, 0.001),
		scored("beta", 60, 50, 0.002),
	)))
	require.NoError(t, store.Append(round("r2", 0,
		scored("alpha", 90, 200, 0.001),
	)))
	require.NoError(t, store.Append(round("r3", 1,
		scored("alpha", 70, 300, 0.001),
		scored("beta", 80, 150, 0.002),
	)))

	stats := store.Stats()
	require.Len(t, stats, 2)

	alpha := stats["alpha"]
	assert.Equal(t, 3, alpha.TotalRequests)
	assert.InDelta(t, 80.0, alpha.AvgQuality, 1e-9)
	assert.InDelta(t, 200.0, alpha.AvgResponseTime, 1e-9)
	assert.InDelta(t, 0.003, alpha.TotalCost, 1e-9)
	assert.Equal(t, 2, alpha.TimesSelected)

	beta := stats["beta"]
	assert.Equal(t, 2, beta.TotalRequests)
	assert.InDelta(t, 70.0, beta.AvgQuality, 1e-9)
	assert.InDelta(t, 100.0, beta.AvgResponseTime, 1e-9)
	assert.InDelta(t, 0.004, beta.TotalCost, 1e-9)
	assert.Equal(t, 1, beta.TimesSelected)
}

func TestStatsCountsFailuresAtZero(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"))

	failed := models.ScoredResult{
		GenResult: models.GenResult{
			Provider:       "beta",
			Model:          "beta-1",
			Status:         models.StatusError,
			Error:          "beta timeout after 30000ms",
			ResponseTimeMs: 30000,
		},
	}
	require.NoError(t, store.Append(round("r1", 0,
		scored("alpha", 80, 100, 0.001),
		failed,
	)))

	stats := store.Stats()

	beta := stats["beta"]
	assert.Equal(t, 1, beta.TotalRequests)
	assert.Zero(t, beta.AvgQuality)
	assert.Zero(t, beta.TotalCost)
	assert.Zero(t, beta.TimesSelected)
	assert.InDelta(t, 30000.0, beta.AvgResponseTime, 1e-9)
}

func TestStatsReflectNewAppends(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, store.Append(round("r1", 0, scored("alpha", 80, 100, 0.001))))
	assert.Equal(t, 1, store.Stats()["alpha"].TotalRequests)

	require.NoError(t, store.Append(round("r2", 0, scored("alpha", 90, 200, 0.001))))

	alpha := store.Stats()["alpha"]
	assert.Equal(t, 2, alpha.TotalRequests)
	assert.InDelta(t, 85.0, alpha.AvgQuality, 1e-9)
}

func TestStatsReturnsSnapshot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, store.Append(round("r1", 0, scored("alpha", 80, 100, 0.001))))

	first := store.Stats()
	first["alpha"] = models.ModelStats{TotalRequests: 999}
	delete(first, "alpha")

	assert.Equal(t, 1, store.Stats()["alpha"].TotalRequests)
}

func TestStatsEmptyStore(t *testing.T) {
	store := NewStore("")
	assert.Empty(t, store.Stats())
}
