// Package provider defines the adapter contract every AI backend implements
// and the registry the orchestrator resolves provider ids against. An
// adapter wraps exactly one upstream model endpoint; fan-out, timeouts, and
// scoring all live above this layer.
package provider

import (
	"context"

	"github.com/modelmux/quorum/internal/models"
)

// Adapter is a single provider/model endpoint. Call performs one generation
// attempt; it honors ctx for cancellation and returns an error only for
// failures the caller should convert into an error-status result. Adapters
// never retry.
type Adapter interface {
	// ID is the stable provider id used in requests, results, and stats.
	ID() string
	// Model is the upstream model identifier, used for pricing and results.
	Model() string
	Call(ctx context.Context, input models.GenInput) (models.GenResult, error)
}
