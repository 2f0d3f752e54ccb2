// Package openai adapts the OpenAI chat completions API to the provider
// contract. Calls go through a per-adapter circuit breaker so a provider
// that is consistently failing stops receiving traffic for a while; there
// is no retry logic here, a round makes at most one attempt per provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/pricing"
	"github.com/modelmux/quorum/internal/provider"
	"github.com/modelmux/quorum/internal/tokens"
)

const (
	providerID     = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second
)

// Adapter calls one OpenAI chat model.
type Adapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[*chatResponse]
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithBaseURL overrides the default OpenAI base URL.
func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = url
	}
}

// WithModel selects the model this adapter calls.
func WithModel(model string) Option {
	return func(a *Adapter) {
		a.model = model
	}
}

// WithLogger sets a structured logger for the adapter.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// New creates an OpenAI adapter with the given API key and options.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.breaker = newBreaker(a)
	return a
}

func (a *Adapter) ID() string    { return providerID }
func (a *Adapter) Model() string { return a.model }

// Call makes a single chat completion request through the circuit breaker.
func (a *Adapter) Call(ctx context.Context, input models.GenInput) (models.GenResult, error) {
	start := time.Now()

	resp, err := a.breaker.Execute(func() (*chatResponse, error) {
		return a.doRequest(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return models.GenResult{}, &provider.ClassifiedError{
				Provider: providerID,
				Type:     provider.ErrProviderOverloaded,
				Message:  fmt.Sprintf("circuit breaker open for model %s", a.model),
			}
		}
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.GenResult{}, &provider.ClassifiedError{
				Provider: providerID,
				Type:     provider.ErrRateLimit,
				Message:  fmt.Sprintf("circuit breaker half-open, too many probes for model %s", a.model),
			}
		}
		return models.GenResult{}, err
	}

	text := resp.textContent()
	in, out := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	if resp.Usage.TotalTokens == 0 {
		in, out, _ = tokens.EstimateUsage(input.Prompt+input.System, text)
	}

	return models.GenResult{
		Provider:       providerID,
		Model:          a.model,
		Kind:           models.DetectKind(text),
		Status:         models.StatusOK,
		Text:           text,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		TokensUsed:     in + out,
		Cost:           pricing.Cost(a.model, in, out),
	}, nil
}

// doRequest performs a single HTTP request and parses the response.
func (a *Adapter) doRequest(ctx context.Context, input models.GenInput) (*chatResponse, error) {
	messages := make([]chatMessage, 0, 2)
	if input.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: input.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: input.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: input.Temperature,
		MaxTokens:   input.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrTimeout,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ClassifyResponse(providerID, resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrMalformedResponse,
			Message:  fmt.Sprintf("read response body: %v", err),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrMalformedResponse,
			Message:  fmt.Sprintf("parse response JSON: %v", err),
		}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrMalformedResponse,
			Message:  "response contains no choices",
		}
	}

	return &chatResp, nil
}

// newBreaker builds the per-adapter circuit breaker. Caller faults (auth,
// content filter, context length) do not count against provider health.
func newBreaker(a *Adapter) *gobreaker.CircuitBreaker[*chatResponse] {
	return gobreaker.NewCircuitBreaker[*chatResponse](gobreaker.Settings{
		Name:        providerID + "-" + a.model,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Info("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var classified *provider.ClassifiedError
			if !errors.As(err, &classified) {
				return false
			}
			return classified.CallerFault()
		},
	})
}
