package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modelmux/quorum/internal/history"
	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/scoring"
	"github.com/modelmux/quorum/internal/selection"
)

// Request bounds enforced at the service boundary.
const (
	MaxPromptLen = 5000
	MaxModels    = 10
	MinTier      = 1
	MaxTier      = 5
)

// Request is one orchestration submitted through the service boundary. The
// JSON shape doubles as the HTTP request body.
type Request struct {
	Prompt             string            `json:"prompt"`
	Models             []string          `json:"models"`
	SelectionStrategy  string            `json:"selectionStrategy"`
	Context            map[string]string `json:"context,omitempty"`
	SystemPrompt       string            `json:"systemPrompt,omitempty"`
	Tier               int               `json:"tier,omitempty"`
	EnforcePolicyCheck bool              `json:"enforcePolicyCheck,omitempty"`

	// TaskType optionally pins the scoring heuristics; when empty the task
	// type is inferred from the prompt.
	TaskType string `json:"taskType,omitempty"`
}

// validate checks the request bounds and parses its enum fields. All
// failures wrap ErrInvalidRequest.
func (r Request) validate() (models.Strategy, models.TaskType, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return "", "", fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if len(r.Prompt) > MaxPromptLen {
		return "", "", fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidRequest, MaxPromptLen)
	}
	if len(r.Models) == 0 {
		return "", "", fmt.Errorf("%w: at least one model is required", ErrInvalidRequest)
	}
	if len(r.Models) > MaxModels {
		return "", "", fmt.Errorf("%w: at most %d models per request", ErrInvalidRequest, MaxModels)
	}

	strategy, err := models.ParseStrategy(r.SelectionStrategy)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if r.Tier != 0 && (r.Tier < MinTier || r.Tier > MaxTier) {
		return "", "", fmt.Errorf("%w: tier must be between %d and %d", ErrInvalidRequest, MinTier, MaxTier)
	}

	var taskType models.TaskType
	if r.TaskType != "" {
		taskType, err = models.ParseTaskType(r.TaskType)
		if err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	return strategy, taskType, nil
}

// Service sits between callers (HTTP handlers, CLI commands) and the
// orchestrator: it validates requests, chooses the consensus or sequential
// path, and records completed rounds.
type Service struct {
	orch    *Orchestrator
	history *history.Store
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets a structured logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService wires an orchestrator to a history store. A nil store disables
// persistence and stats.
func NewService(orch *Orchestrator, hist *history.Store, opts ...ServiceOption) *Service {
	s := &Service{
		orch:    orch,
		history: hist,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrchestrateGeneration runs one round end to end. With two or more models
// and the quality strategy it attempts the concurrent consensus path; any
// failure there falls back to calling providers sequentially and picking
// with the selection strategy. The round fails only when every attempted
// provider returned an error, surfaced as *OrchestrationFailedError.
func (s *Service) OrchestrateGeneration(ctx context.Context, req Request) (*models.OrchestrationResult, error) {
	strategy, taskType, err := req.validate()
	if err != nil {
		return nil, err
	}
	if taskType == "" {
		taskType = scoring.DetectTaskType(req.Prompt)
	}
	if req.Tier != 0 || req.EnforcePolicyCheck {
		s.logger.Debug("accepted request flags",
			"tier", req.Tier,
			"enforcePolicyCheck", req.EnforcePolicyCheck,
		)
	}

	input := models.GenInput{
		Prompt: req.Prompt,
		System: buildSystemPrompt(req.SystemPrompt, req.Context),
	}

	start := time.Now()

	var responses []models.ScoredResult
	var selected models.ScoredResult
	usedConsensus := false

	if len(req.Models) >= 2 && strategy == models.StrategyQuality {
		outcome, runErr := s.orch.Run(ctx, req.Models, input, taskType)
		switch {
		case errors.Is(runErr, ErrNoValidProviders):
			return nil, runErr
		case runErr != nil:
			s.logger.Warn("consensus path failed, falling back to sequential",
				"reason", runErr.Error(),
			)
		case outcome.Consensus.Winner == nil:
			s.logger.Warn("consensus path failed, falling back to sequential",
				"reason", "no successful responses",
			)
		default:
			responses = outcome.Results
			selected = *outcome.Consensus.Winner
			usedConsensus = true
		}
	}

	if !usedConsensus {
		responses, err = s.orch.RunSequential(ctx, req.Models, input, taskType)
		if err != nil {
			return nil, err
		}
		selected = selection.Select(responses, strategy)
	}

	if failed, lastErr := allFailed(responses); failed {
		return nil, &OrchestrationFailedError{
			Providers: req.Models,
			LastErr:   lastErr,
		}
	}

	result := &models.OrchestrationResult{
		ID:               uuid.NewString(),
		Prompt:           req.Prompt,
		Models:           req.Models,
		Responses:        responses,
		SelectedResponse: selected,
		TotalCost:        totalCost(responses),
		TotalTime:        time.Since(start).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	if s.history != nil {
		if histErr := s.history.Append(*result); histErr != nil {
			s.logger.Warn("failed to record round in history",
				"round", result.ID,
				"error", histErr,
			)
		}
	}

	return result, nil
}

// CompareModels runs the concurrent path across the given providers and
// returns the full scored set. Nothing is persisted.
func (s *Service) CompareModels(ctx context.Context, prompt string, providerIDs []string, taskType models.TaskType) ([]models.ScoredResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if len(providerIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one model is required", ErrInvalidRequest)
	}
	if taskType == "" {
		taskType = scoring.DetectTaskType(prompt)
	}

	outcome, err := s.orch.Run(ctx, providerIDs, models.GenInput{Prompt: prompt}, taskType)
	if err != nil {
		return nil, err
	}
	return outcome.Results, nil
}

// GetModelStats returns per-provider aggregates over retained history.
func (s *Service) GetModelStats() map[string]models.ModelStats {
	if s.history == nil {
		return map[string]models.ModelStats{}
	}
	return s.history.Stats()
}

// History exposes the round log for read endpoints.
func (s *Service) History() *history.Store {
	return s.history
}

// buildSystemPrompt appends request context to the system prompt as
// "key: value" lines, sorted for deterministic output.
func buildSystemPrompt(system string, context map[string]string) string {
	if len(context) == 0 {
		return system
	}

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+context[k])
	}

	if system == "" {
		return strings.Join(lines, "\n")
	}
	return system + "\n\n" + strings.Join(lines, "\n")
}

// allFailed reports whether every response errored, along with the error
// message of the last-arriving failure.
func allFailed(responses []models.ScoredResult) (bool, string) {
	if len(responses) == 0 {
		return true, ""
	}
	lastErr := ""
	for _, r := range responses {
		if !r.Failed() {
			return false, ""
		}
		lastErr = r.Error
	}
	return true, lastErr
}

func totalCost(responses []models.ScoredResult) float64 {
	var total float64
	for _, r := range responses {
		total += r.Cost
	}
	return total
}
