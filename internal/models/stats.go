package models

// ModelStats accumulates per-provider aggregates across rounds. Averages are
// maintained with the online update avg += (x - avg) / n so a fold over
// history never recomputes from scratch.
type ModelStats struct {
	TotalRequests   int     `json:"totalRequests"`
	AvgQuality      float64 `json:"avgQuality"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	TotalCost       float64 `json:"totalCost"`
	TimesSelected   int     `json:"timesSelected"`
}

// Observe folds one response into the running aggregates.
func (s *ModelStats) Observe(score float64, responseTimeMs int64, cost float64) {
	s.TotalRequests++
	n := float64(s.TotalRequests)
	s.AvgQuality += (score - s.AvgQuality) / n
	s.AvgResponseTime += (float64(responseTimeMs) - s.AvgResponseTime) / n
	s.TotalCost += cost
}

// MarkSelected records that this provider's response won a round.
func (s *ModelStats) MarkSelected() {
	s.TimesSelected++
}
