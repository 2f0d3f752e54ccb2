// Package webapi exposes the orchestration service over REST.
package webapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/modelmux/quorum/internal/history"
	"github.com/modelmux/quorum/internal/models"
	"github.com/modelmux/quorum/internal/orchestration"
	"github.com/modelmux/quorum/internal/validation"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// maxRequestBody caps orchestrate request bodies well above the 5000-char
// prompt bound.
const maxRequestBody = 1 << 20

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	service *orchestration.Service
	logger  *slog.Logger
}

// NewHandlers creates Handlers backed by the given service.
func NewHandlers(service *orchestration.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger}
}

// HandleOrchestrate validates the request body against the embedded schema,
// runs one round, and responds with the OrchestrationResult.
func (h *Handlers) HandleOrchestrate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, "failed to read request body")
		return
	}

	if errs := validation.ValidateOrchestrateRequest(body); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, strings.Join(errs, "; "))
		return
	}

	var req orchestration.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, err.Error())
		return
	}

	result, err := h.service.OrchestrateGeneration(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns retained rounds, newest first. An optional limit
// query parameter truncates the list.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errLabelInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	store := h.service.History()
	if store == nil {
		writeJSON(w, http.StatusOK, []models.OrchestrationResult{})
		return
	}
	writeJSON(w, http.StatusOK, store.List(limit))
}

// HandleHistoryDetail returns one round by id.
func (h *Handlers) HandleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, "round id is required")
		return
	}

	store := h.service.History()
	if store == nil {
		writeError(w, http.StatusNotFound, errLabelNotFound, "round not found")
		return
	}

	round, err := store.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrRoundNotFound) {
			writeError(w, http.StatusNotFound, errLabelNotFound, "round not found")
		} else {
			writeError(w, http.StatusInternalServerError, errLabelInternal, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleHistoryClear empties the round log.
func (h *Handlers) HandleHistoryClear(w http.ResponseWriter, _ *http.Request) {
	store := h.service.History()
	if store != nil {
		if err := store.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, errLabelInternal, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats returns per-provider aggregates over retained history.
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetModelStats())
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Time:    time.Now().UTC(),
	})
}

// writeServiceError maps service errors to HTTP status codes.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var failed *orchestration.OrchestrationFailedError
	switch {
	case errors.Is(err, orchestration.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, err.Error())
	case errors.Is(err, orchestration.ErrNoValidProviders):
		writeError(w, http.StatusBadRequest, errLabelInvalidRequest, err.Error())
	case errors.As(err, &failed):
		writeError(w, http.StatusBadGateway, errLabelOrchestrationFailed, failed.Error())
	default:
		h.logger.Error("orchestration failed unexpectedly", "error", err)
		writeError(w, http.StatusInternalServerError, errLabelInternal, err.Error())
	}
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, service *orchestration.Service, logger *slog.Logger) {
	h := NewHandlers(service, logger)
	mux.HandleFunc("POST /api/orchestrate", h.HandleOrchestrate)
	mux.HandleFunc("GET /api/history", h.HandleHistory)
	mux.HandleFunc("GET /api/history/{id}", h.HandleHistoryDetail)
	mux.HandleFunc("DELETE /api/history", h.HandleHistoryClear)
	mux.HandleFunc("GET /api/stats", h.HandleStats)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, label, msg string) {
	writeJSON(w, status, ErrorResponse{Error: label, Message: msg})
}
