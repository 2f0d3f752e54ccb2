// Package orchestration fans a single generation request out to multiple
// provider adapters, applies per-call timeouts, scores the settled results,
// and reduces them to a consensus. Provider failures are isolated: a round
// settles every call and never fails because one provider did.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelmux/quorum/internal/cache"
	"github.com/modelmux/quorum/internal/consensus"
	"github.com/modelmux/quorum/internal/limiter"
	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/provider"
	"github.com/modelmux/quorum/internal/scoring"
)

// DefaultCallTimeout bounds each provider call inside a round.
const DefaultCallTimeout = 30 * time.Second

// Orchestrator runs rounds against a provider registry.
type Orchestrator struct {
	registry     *provider.Registry
	limiter      *limiter.Limiter
	timeout      time.Duration
	scorerParams map[string]any
	cache        *cache.Cache
	logger       *slog.Logger

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLimiter supplies a shared concurrency limiter.
func WithLimiter(l *limiter.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// WithCache enables round caching
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithScorerParams overrides scorer defaults for every round.
func WithScorerParams(params map[string]any) Option {
	return func(o *Orchestrator) {
		o.scorerParams = params
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an orchestrator over the given registry.
func New(registry *provider.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		timeout:   DefaultCallTimeout,
		logger:    slog.Default(),
		listeners: []ProgressListener{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.limiter == nil {
		o.limiter = limiter.New(limiter.DefaultMaxConcurrent)
	}
	return o
}

// Run executes one round: every resolved provider is called concurrently
// under the limiter, results are collected in arrival order, scored, and
// reduced to a consensus. It returns an error only when no requested
// provider id resolves to a registered adapter (or the scorer params are
// unusable); provider errors and timeouts settle as error-status results.
func (o *Orchestrator) Run(ctx context.Context, providerIDs []string, input models.GenInput, taskType models.TaskType) (*models.RoundOutcome, error) {
	adapters, validIDs := o.resolve(providerIDs)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: none of %v is registered", ErrNoValidProviders, providerIDs)
	}

	scorer, err := scoring.Create(taskType, o.scorerParams)
	if err != nil {
		return nil, err
	}

	var cacheKey string
	if o.cache != nil {
		key, keyErr := cache.RoundKey(input, validIDs, taskType)
		if keyErr != nil {
			o.logger.Warn("failed to build cache key", "error", keyErr)
		} else {
			cacheKey = key
			if outcome, ok := o.cache.Get(cacheKey); ok {
				o.notifyProgress(ProgressEvent{
					EventType:      EventRoundCached,
					TotalProviders: len(adapters),
				})
				return outcome, nil
			}
		}
	}

	start := time.Now()
	o.notifyProgress(ProgressEvent{
		EventType:      EventRoundStarted,
		TotalProviders: len(adapters),
	})

	resultChan := make(chan models.GenResult, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(num int, a provider.Adapter) {
			defer wg.Done()
			resultChan <- o.callOne(ctx, num, len(adapters), a, input)
		}(i+1, a)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect in arrival order; everything downstream keys results by
	// (provider, model), never by position.
	results := make([]models.GenResult, 0, len(adapters))
	for res := range resultChan {
		results = append(results, res)
	}

	o.notifyProgress(ProgressEvent{
		EventType:      EventScoringStarted,
		TotalProviders: len(adapters),
	})
	scored := scorer.Score(results)

	cons := consensus.Build(scored)
	consEvent := ProgressEvent{
		EventType: EventConsensusReached,
		Details: map[string]any{
			"agreement":  cons.Agreement,
			"confidence": cons.Confidence,
		},
	}
	if cons.Winner != nil {
		consEvent.Provider = cons.Winner.Provider
		consEvent.Model = cons.Winner.Model
	}
	o.notifyProgress(consEvent)

	outcome := &models.RoundOutcome{
		Results:   scored,
		Consensus: cons,
	}

	if o.cache != nil && cacheKey != "" {
		if putErr := o.cache.Put(cacheKey, outcome); putErr != nil {
			o.logger.Warn("failed to cache round", "error", putErr)
		}
	}

	o.notifyProgress(ProgressEvent{
		EventType:      EventRoundCompleted,
		TotalProviders: len(adapters),
		DurationMs:     time.Since(start).Milliseconds(),
	})

	return outcome, nil
}

// RunSequential executes the fallback path: providers are called one at a
// time in request order, then the full set is scored. No consensus is
// built; callers pick a winner with a selection strategy.
func (o *Orchestrator) RunSequential(ctx context.Context, providerIDs []string, input models.GenInput, taskType models.TaskType) ([]models.ScoredResult, error) {
	adapters, _ := o.resolve(providerIDs)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: none of %v is registered", ErrNoValidProviders, providerIDs)
	}

	scorer, err := scoring.Create(taskType, o.scorerParams)
	if err != nil {
		return nil, err
	}

	results := make([]models.GenResult, 0, len(adapters))
	for i, a := range adapters {
		results = append(results, o.callOne(ctx, i+1, len(adapters), a, input))
	}

	return scorer.Score(results), nil
}

// resolve maps provider ids to registered adapters, dropping unknown ids
// with a warning.
func (o *Orchestrator) resolve(providerIDs []string) ([]provider.Adapter, []string) {
	adapters := make([]provider.Adapter, 0, len(providerIDs))
	validIDs := make([]string, 0, len(providerIDs))
	for _, id := range providerIDs {
		a, ok := o.registry.Lookup(id)
		if !ok {
			o.logger.Warn("skipping unknown provider", "provider", id)
			continue
		}
		adapters = append(adapters, a)
		validIDs = append(validIDs, id)
	}
	return adapters, validIDs
}

// callOne performs a single provider call under the limiter, racing it
// against the per-call timeout. Every outcome settles as a GenResult; the
// limiter slot is released exactly once, when the call settles. A call that
// loses the race keeps running in the background until its context
// cancellation lands, and its eventual result is discarded.
func (o *Orchestrator) callOne(ctx context.Context, num, total int, a provider.Adapter, input models.GenInput) models.GenResult {
	if err := o.limiter.Acquire(ctx); err != nil {
		return errorResult(a, 0, err.Error())
	}
	defer o.limiter.Release()

	o.notifyProgress(ProgressEvent{
		EventType:      EventProviderStarted,
		Provider:       a.ID(),
		Model:          a.Model(),
		ProviderNum:    num,
		TotalProviders: total,
	})

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type callOutcome struct {
		res models.GenResult
		err error
	}

	// Buffered so the losing branch can settle without a reader.
	done := make(chan callOutcome, 1)
	go func() {
		res, err := a.Call(cctx, input)
		done <- callOutcome{res: res, err: err}
	}()

	var result models.GenResult
	select {
	case out := <-done:
		elapsed := time.Since(start).Milliseconds()
		switch {
		case out.err == nil:
			result = out.res
		case timedOut(ctx, cctx):
			result = errorResult(a, elapsed, timeoutMessage(a.ID(), o.timeout))
		default:
			result = errorResult(a, elapsed, out.err.Error())
		}

	case <-cctx.Done():
		elapsed := time.Since(start).Milliseconds()
		if timedOut(ctx, cctx) {
			result = errorResult(a, elapsed, timeoutMessage(a.ID(), o.timeout))
		} else {
			result = errorResult(a, elapsed, ctx.Err().Error())
		}
	}

	if result.Failed() {
		o.notifyProgress(ProgressEvent{
			EventType:      EventProviderFailed,
			Provider:       a.ID(),
			Model:          a.Model(),
			ProviderNum:    num,
			TotalProviders: total,
			DurationMs:     result.ResponseTimeMs,
			Err:            result.Error,
		})
		o.logger.Debug("provider call failed",
			"provider", a.ID(),
			"model", a.Model(),
			"error", result.Error,
		)
	} else {
		o.notifyProgress(ProgressEvent{
			EventType:      EventProviderCompleted,
			Provider:       a.ID(),
			Model:          a.Model(),
			ProviderNum:    num,
			TotalProviders: total,
			DurationMs:     result.ResponseTimeMs,
		})
	}

	return result
}

// timedOut reports whether the per-call deadline expired on its own, as
// opposed to the parent context being canceled. Adapters that honor
// cancellation surface the deadline as their own error; the check keeps the
// timeout message uniform no matter which side observed it first.
func timedOut(parent, call context.Context) bool {
	return parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded)
}

func timeoutMessage(providerID string, timeout time.Duration) string {
	return fmt.Sprintf("%s timeout after %dms", providerID, timeout.Milliseconds())
}

func errorResult(a provider.Adapter, elapsedMs int64, msg string) models.GenResult {
	return models.GenResult{
		Provider:       a.ID(),
		Model:          a.Model(),
		Status:         models.StatusError,
		Error:          msg,
		ResponseTimeMs: elapsedMs,
	}
}

// Timeout returns the per-call timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}
