package webapi

import "time"

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}

// ErrorResponse is returned for errors. Error is a stable machine-readable
// label; Message carries the human-readable detail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Stable error labels used in ErrorResponse.Error.
const (
	errLabelInvalidRequest      = "invalid_request"
	errLabelNotFound            = "not_found"
	errLabelOrchestrationFailed = "orchestration_failed"
	errLabelInternal            = "internal_error"
)
