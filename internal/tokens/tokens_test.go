package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char rounds up", "a", 1},
		{"exactly one token", "abcd", 1},
		{"five chars", "abcde", 2},
		{"eight chars", "12345678", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateUsage(t *testing.T) {
	in, out, total := EstimateUsage("12345678", "abcd")
	assert.Equal(t, 2, in)
	assert.Equal(t, 1, out)
	assert.Equal(t, 3, total)
}
