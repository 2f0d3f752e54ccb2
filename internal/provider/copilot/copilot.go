// Package copilot adapts the GitHub Copilot SDK to the provider contract.
// The SDK drives a local copilot CLI process; the adapter starts it lazily
// on first call and creates one session per generation.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdk "github.com/github/copilot-sdk/go"

	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/pricing"
	"github.com/modelmux/quorum/internal/tokens"
)

const (
	providerID = "copilot"

	// Reported when the session lets the CLI pick its own fallback model.
	fallbackModel = "copilot-default"
)

// Adapter calls Copilot through the SDK. The model id may be blank, which
// means the copilot CLI will choose its own fallback model.
type Adapter struct {
	model  string
	client copilotClient

	startOnce sync.Once
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithModel selects the model for created sessions.
func WithModel(model string) Option {
	return func(a *Adapter) {
		a.model = model
	}
}

// WithClient swaps the SDK client (useful for testing).
func WithClient(client copilotClient) Option {
	return func(a *Adapter) {
		a.client = client
	}
}

// New creates a Copilot adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = newCopilotClient(&sdk.ClientOptions{
			LogLevel:  "error",
			AutoStart: sdk.Bool(false),
		})
	}
	return a
}

func (a *Adapter) ID() string { return providerID }

func (a *Adapter) Model() string {
	if a.model == "" {
		return fallbackModel
	}
	return a.model
}

// Call creates a session, sends the prompt, and waits for the session to
// settle.
func (a *Adapter) Call(ctx context.Context, input models.GenInput) (models.GenResult, error) {
	var startErr error
	a.startOnce.Do(func() {
		// NOTE: this is a workaround, the copilot client has an 'autostart'
		// feature, but it runs into issues when it tries to autostart from
		// separate goroutines.
		startErr = a.client.Start(ctx)
	})
	if startErr != nil {
		return models.GenResult{}, fmt.Errorf("copilot failed to start: %w", startErr)
	}

	start := time.Now()

	session, err := a.client.CreateSession(ctx, &sdk.SessionConfig{
		Model: a.model,
	})
	if err != nil {
		return models.GenResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	collector := &outputCollector{}
	unsubscribe := session.On(collector.on)
	defer unsubscribe()

	prompt := input.Prompt
	if input.System != "" {
		prompt = input.System + "\n\n" + input.Prompt
	}

	_, err = session.SendAndWait(ctx, sdk.MessageOptions{
		Prompt: prompt,
	})
	if err != nil {
		return models.GenResult{}, err
	}
	if collector.errorMsg != "" {
		return models.GenResult{}, errors.New(collector.errorMsg)
	}

	text := collector.output()
	in, out, _ := tokens.EstimateUsage(prompt, text)

	return models.GenResult{
		Provider:       providerID,
		Model:          a.Model(),
		Kind:           models.DetectKind(text),
		Status:         models.StatusOK,
		Text:           text,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		TokensUsed:     in + out,
		Cost:           pricing.Cost(a.Model(), in, out),
	}, nil
}

// Close stops the underlying CLI process.
func (a *Adapter) Close() error {
	return a.client.Stop()
}
