// Package anthropic adapts the Anthropic messages API to the provider
// contract. Calls go through a per-adapter circuit breaker; there is no
// retry logic here.
package anthropic

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
	providerID     = "anthropic"
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-5"
	defaultTimeout = 60 * time.Second
	apiVersion     = "2023-06-01"

	// The messages API requires max_tokens; used when the caller sets none.
	defaultMaxTokens = 4096
)

// Adapter calls one Anthropic model.
type Adapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[*messagesResponse]
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithBaseURL overrides the default Anthropic base URL.
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

// New creates an Anthropic adapter with the given API key and options.
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

// Call makes a single messages request through the circuit breaker.
func (a *Adapter) Call(ctx context.Context, input models.GenInput) (models.GenResult, error) {
	start := time.Now()

	resp, err := a.breaker.Execute(func() (*messagesResponse, error) {
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
	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	if in == 0 && out == 0 {
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
func (a *Adapter) doRequest(ctx context.Context, input models.GenInput) (*messagesResponse, error) {
	maxTokens := defaultMaxTokens
	if input.MaxTokens != nil {
		maxTokens = *input.MaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Messages:    []message{{Role: "user", Content: input.Prompt}},
		System:      input.System,
		Temperature: input.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var msgResp messagesResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrMalformedResponse,
			Message:  fmt.Sprintf("parse response JSON: %v", err),
		}
	}
	if len(msgResp.Content) == 0 {
		return nil, &provider.ClassifiedError{
			Provider: providerID,
			Type:     provider.ErrMalformedResponse,
			Message:  "response contains no content blocks",
		}
	}

	return &msgResp, nil
}

// newBreaker builds the per-adapter circuit breaker. Caller faults (auth,
// content filter, context length) do not count against provider health.
func newBreaker(a *Adapter) *gobreaker.CircuitBreaker[*messagesResponse] {
	return gobreaker.NewCircuitBreaker[*messagesResponse](gobreaker.Settings{
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
