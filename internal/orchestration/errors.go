package orchestration

import (
	"errors"
	"fmt"
)

// ErrNoValidProviders is returned when none of the requested provider ids
// resolve to a registered adapter. It is the only error a round can raise
// before any provider is called.
var ErrNoValidProviders = errors.New("no valid providers")

// ErrInvalidRequest wraps request-shape problems found before orchestration
// starts.
var ErrInvalidRequest = errors.New("invalid request")

// OrchestrationFailedError is the terminal failure of a round: every
// attempted provider, across whichever path was used, returned an error.
// It carries the last provider's error message.
type OrchestrationFailedError struct {
	Providers []string
	LastErr   string
}

func (e *OrchestrationFailedError) Error() string {
	return fmt.Sprintf("all %d providers failed, last error: %s", len(e.Providers), e.LastErr)
}
