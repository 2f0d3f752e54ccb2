package orchestration

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRoundStarted      EventType = "round_started"
	EventRoundCompleted    EventType = "round_completed"
	EventRoundCached       EventType = "round_cached"
	EventProviderStarted   EventType = "provider_started"
	EventProviderCompleted EventType = "provider_completed"
	EventProviderFailed    EventType = "provider_failed"
	EventScoringStarted    EventType = "scoring_started"
	EventConsensusReached  EventType = "consensus_reached"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType      EventType
	Provider       string
	Model          string
	ProviderNum    int
	TotalProviders int
	DurationMs     int64
	Err            string
	Details        map[string]any
}

// OnProgress registers a progress listener
func (o *Orchestrator) OnProgress(listener ProgressListener) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

func (o *Orchestrator) notifyProgress(event ProgressEvent) {
	o.progressMu.Lock()
	listeners := make([]ProgressListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}
