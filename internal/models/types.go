package models

import (
	"fmt"
	"strings"
	"time"
)

// ResultStatus indicates whether an adapter call produced output or failed.
type ResultStatus string

const (
	StatusOK    ResultStatus = "ok"
	StatusError ResultStatus = "error"
)

// OutputKind classifies the shape of a generated response.
type OutputKind string

const (
	KindText OutputKind = "text"
	KindCode OutputKind = "code"
)

// TaskType selects the scoring heuristics applied to a round.
type TaskType string

const (
	TaskCode TaskType = "code"
	TaskText TaskType = "text"
)

// ParseTaskType converts a string flag value to a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code":
		return TaskCode, nil
	case "text":
		return TaskText, nil
	default:
		return TaskText, fmt.Errorf("invalid task type %q: must be code or text", s)
	}
}

// Strategy names the rule used to pick one response from a scored set.
type Strategy string

const (
	StrategyQuality  Strategy = "quality"
	StrategySpeed    Strategy = "speed"
	StrategyCost     Strategy = "cost"
	StrategyBalanced Strategy = "balanced"
)

// ParseStrategy converts a string flag value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quality":
		return StrategyQuality, nil
	case "speed":
		return StrategySpeed, nil
	case "cost":
		return StrategyCost, nil
	case "balanced":
		return StrategyBalanced, nil
	default:
		return StrategyQuality, fmt.Errorf("invalid strategy %q: must be quality, speed, cost, or balanced", s)
	}
}

// GenInput is one generation request. It is immutable for the duration of a
// round; every adapter receives the same value.
type GenInput struct {
	Prompt      string   `json:"prompt"`
	System      string   `json:"system,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// GenResult is the uniform outcome of one adapter invocation. Exactly one is
// produced per dispatched provider per round, whether the call succeeded,
// errored, or timed out. Error results carry cost 0 and empty text.
type GenResult struct {
	Provider       string       `json:"provider"`
	Model          string       `json:"model"`
	Kind           OutputKind   `json:"kind"`
	Status         ResultStatus `json:"status"`
	Text           string       `json:"text,omitempty"`
	Error          string       `json:"error,omitempty"`
	ResponseTimeMs int64        `json:"responseTimeMs"`
	TokensUsed     int          `json:"tokensUsed"`
	Cost           float64      `json:"cost"`
}

// Failed reports whether the result carries an error status.
func (r GenResult) Failed() bool {
	return r.Status == StatusError
}

// Key identifies a result by provider and model. Downstream logic keys
// results this way, never by collection position.
func (r GenResult) Key() string {
	return r.Provider + "/" + r.Model
}

// DetectKind classifies response text as code or prose.
func DetectKind(text string) OutputKind {
	if strings.Contains(text, "```") {
		return KindCode
	}
	return KindText
}

// ScoredResult is a GenResult with its quality score in [0,100]. The score is
// a pure function of the result text and task type.
type ScoredResult struct {
	GenResult
	Score float64 `json:"score"`
}

// ConsensusResult reduces a scored set to one decision. Winner is nil only
// when no response contributed (every provider errored).
type ConsensusResult struct {
	Winner     *ScoredResult `json:"winner,omitempty"`
	Agreement  float64       `json:"agreement"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
}

// RoundOutcome is the orchestrator's return value: the full scored set in
// arrival order plus the consensus derived from it.
type RoundOutcome struct {
	Results   []ScoredResult  `json:"results"`
	Consensus ConsensusResult `json:"consensus"`
}

// OrchestrationResult is the durable record of one round. SelectedResponse is
// always a member of Responses. TotalCost sums every attempt (failed calls
// cost 0); TotalTime is wall-clock milliseconds for the round, timeouts
// included.
type OrchestrationResult struct {
	ID               string         `json:"id"`
	Prompt           string         `json:"prompt"`
	Models           []string       `json:"models"`
	Responses        []ScoredResult `json:"responses"`
	SelectedResponse ScoredResult   `json:"selectedResponse"`
	TotalCost        float64        `json:"totalCost"`
	TotalTime        int64          `json:"totalTime"`
	CreatedAt        time.Time      `json:"createdAt"`
}
