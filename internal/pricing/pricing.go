// Package pricing maps model identifiers to USD prices per million tokens
// and converts token usage into request cost.
package pricing

// Price holds per-million-token USD prices for one model.
type Price struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Unknown models fall back to these conservative prices so cost totals stay
// populated rather than silently zero.
const (
	defaultInputPerMTok  = 3.0
	defaultOutputPerMTok = 15.0
)

var modelPrices = map[string]Price{
	"gpt-4o":                 {2.5, 10.0},
	"gpt-4o-mini":            {0.15, 0.6},
	"gpt-4.1":                {2.0, 8.0},
	"o3-mini":                {1.1, 4.4},
	"claude-sonnet-4-5":      {3.0, 15.0},
	"claude-opus-4-5":        {15.0, 75.0},
	"claude-haiku-4-5":       {0.8, 4.0},
	"gemini-2.5-pro":         {1.25, 10.0},
	"gemini-2.5-flash":       {0.3, 2.5},
	"llama-3.3-70b-instruct": {0.12, 0.3},
	"deepseek-chat-v3":       {0.25, 1.0},
	"mistral-large-2411":     {2.0, 6.0},
	"copilot-default":        {0.0, 0.0},
	"static-default":         {0.0, 0.0},
}

// Lookup returns the price entry for a model and whether it was found.
func Lookup(model string) (Price, bool) {
	p, ok := modelPrices[model]
	return p, ok
}

// Cost converts input/output token counts for a model into USD.
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPrices[model]
	if !ok {
		p = Price{InputPerMTok: defaultInputPerMTok, OutputPerMTok: defaultOutputPerMTok}
	}
	in := float64(inputTokens) / 1_000_000 * p.InputPerMTok
	out := float64(outputTokens) / 1_000_000 * p.OutputPerMTok
	return in + out
}
