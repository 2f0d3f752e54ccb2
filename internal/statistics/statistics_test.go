package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 80.0, Mean([]float64{80, 90, 70}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{5, 5, 5}))
	// Population stddev of {2, 4, 4, 4, 5, 5, 7, 9} is exactly 2.
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestBootstrapCIFewerThanTwoPoints(t *testing.T) {
	ci := BootstrapCI([]float64{85}, 0.95)
	assert.InDelta(t, 85.0, ci.Lower, 1e-9)
	assert.InDelta(t, 85.0, ci.Upper, 1e-9)
	assert.Zero(t, ci.NumBootstraps)
}

func TestBootstrapCIWithSeedIsReproducible(t *testing.T) {
	scores := []float64{70, 75, 80, 85, 90, 95}

	a := BootstrapCIWithSeed(scores, 0.95, 42)
	b := BootstrapCIWithSeed(scores, 0.95, 42)

	assert.Equal(t, a, b)
	assert.LessOrEqual(t, a.Lower, a.Mean)
	assert.GreaterOrEqual(t, a.Upper, a.Mean)
	assert.Equal(t, DefaultBootstrapIterations, a.NumBootstraps)
}

func TestBootstrapCIBracketsTheMean(t *testing.T) {
	scores := []float64{60, 65, 70, 75, 80, 85, 90}
	ci := BootstrapCIWithSeed(scores, 0.95, 7)

	m := Mean(scores)
	assert.Less(t, ci.Lower, m)
	assert.Greater(t, ci.Upper, m)
}
