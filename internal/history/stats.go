package history

import "github.com/modelmux/quorum/internal/models"

// Stats aggregates per-provider metrics across the retained window. The
// fold replays rounds oldest first so the online averages accumulate in
// insertion order. Failed responses participate at score 0 and cost 0;
// TimesSelected increments only for the provider whose response won the
// round. The result is a snapshot; mutating it does not affect the store.
func (s *Store) Stats() map[string]models.ModelStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats == nil {
		s.stats = buildStats(s.entries)
	}

	out := make(map[string]models.ModelStats, len(s.stats))
	for provider, st := range s.stats {
		out[provider] = st
	}
	return out
}

func buildStats(entries []models.OrchestrationResult) map[string]models.ModelStats {
	stats := make(map[string]models.ModelStats)
	for i := len(entries) - 1; i >= 0; i-- {
		round := entries[i]
		for _, resp := range round.Responses {
			st := stats[resp.Provider]
			st.Observe(resp.Score, resp.ResponseTimeMs, resp.Cost)
			stats[resp.Provider] = st
		}
		if winner := round.SelectedResponse.Provider; winner != "" {
			st := stats[winner]
			st.MarkSelected()
			stats[winner] = st
		}
	}
	return stats
}
