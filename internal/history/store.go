// Package history persists completed orchestration rounds to a capped
// JSON file, newest first, and derives per-provider aggregates from the
// retained window.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/modelmux/quorum/internal/models"
)

// MaxEntries caps the retained history; appending beyond it evicts the
// oldest round.
const MaxEntries = 50

// ErrRoundNotFound is returned by Get for an unknown round id.
var ErrRoundNotFound = errors.New("round not found")

// Store is a mutex-guarded, file-backed round log. Entries are held newest
// first, matching the order persisted to disk. An empty path keeps the
// store in memory only.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []models.OrchestrationResult
	stats   map[string]models.ModelStats
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore opens (or lazily creates) the history file at path. A missing
// file starts an empty store; an unreadable or corrupt one is treated as
// empty with a warning rather than an error.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		s.logger.Warn("failed to read history file", "path", s.path, "error", err)
		return
	}

	var entries []models.OrchestrationResult
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("ignoring corrupt history file", "path", s.path, "error", err)
		return
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	s.entries = entries
}

// Append records a completed round at the front of the log and persists
// the full window. The oldest entry is evicted once the cap is reached.
func (s *Store) Append(result models.OrchestrationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]models.OrchestrationResult{result}, s.entries...)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	s.stats = nil

	return s.persist()
}

// List returns up to limit rounds, newest first. A non-positive limit
// returns the full window.
func (s *Store) List(limit int) []models.OrchestrationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.OrchestrationResult, n)
	copy(out, s.entries[:n])
	return out
}

// Get looks a round up by id.
func (s *Store) Get(id string) (models.OrchestrationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.OrchestrationResult{}, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
}

// Clear drops every entry and persists the empty window.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.stats = nil
	return s.persist()
}

// Len reports the number of retained rounds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persist writes the window atomically: marshal to a sibling temp file,
// then rename over the target. Callers must hold s.mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
