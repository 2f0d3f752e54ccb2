// Package static provides a deterministic in-process adapter. It answers
// every prompt from configured text with a configurable artificial latency,
// which makes it useful for offline runs, demos, and tests that need exact
// control over timing and failure behavior.
package static

import (
	"context"
	"errors"
	"time"

	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/pricing"
	"github.com/modelmux/quorum/internal/tokens"
)

const defaultModel = "static-default"

// Adapter is a canned provider. The zero latency, non-failing form returns
// instantly.
type Adapter struct {
	id      string
	model   string
	text    string
	latency time.Duration
	failMsg string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithModel overrides the reported model id.
func WithModel(model string) Option {
	return func(a *Adapter) {
		a.model = model
	}
}

// WithText sets the canned response text. When unset the adapter echoes
// the prompt.
func WithText(text string) Option {
	return func(a *Adapter) {
		a.text = text
	}
}

// WithLatency makes every call take at least d before answering.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) {
		a.latency = d
	}
}

// WithFailure makes every call fail with the given message.
func WithFailure(msg string) Option {
	return func(a *Adapter) {
		a.failMsg = msg
	}
}

// New creates a static adapter with the given provider id.
func New(id string, opts ...Option) *Adapter {
	a := &Adapter{
		id:    id,
		model: defaultModel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ID() string    { return a.id }
func (a *Adapter) Model() string { return a.model }

// Call waits out the configured latency, honoring ctx, then returns the
// canned response or failure.
func (a *Adapter) Call(ctx context.Context, input models.GenInput) (models.GenResult, error) {
	start := time.Now()

	if a.latency > 0 {
		timer := time.NewTimer(a.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.GenResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if a.failMsg != "" {
		return models.GenResult{}, errors.New(a.failMsg)
	}

	text := a.text
	if text == "" {
		text = "Static response to: " + input.Prompt
	}

	in, out, _ := tokens.EstimateUsage(input.Prompt+input.System, text)
	return models.GenResult{
		Provider:       a.id,
		Model:          a.model,
		Kind:           models.DetectKind(text),
		Status:         models.StatusOK,
		Text:           text,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		TokensUsed:     in + out,
		Cost:           pricing.Cost(a.model, in, out),
	}, nil
}
