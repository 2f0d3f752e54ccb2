// Package tokens approximates token usage for providers that do not report
// it. The estimate is ~4 characters per token, rounded up.
package tokens

import "math"

const charsPerToken = 4

// Estimate returns the approximate token count for text.
func Estimate(text string) int {
	return int(math.Ceil(float64(len(text)) / float64(charsPerToken)))
}

// EstimateUsage returns estimated input, output, and total token counts for
// one request/response pair.
func EstimateUsage(input, output string) (in, out, total int) {
	in = Estimate(input)
	out = Estimate(output)
	return in, out, in + out
}
