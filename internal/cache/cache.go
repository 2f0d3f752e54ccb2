// Package cache stores completed orchestration rounds on disk, keyed by a
// digest of everything that determines the round's outcome. Scoring and
// consensus are deterministic, so a cached round is what a re-run would
// produce, minus the provider calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/modelmux/quorum/internal/models"
)

// Cache provides caching for orchestration rounds. An empty directory
// disables it.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// RoundKey generates a unique cache key for one orchestration round.
// The key is based on:
// - the full generation input (prompt, system, temperature, max tokens)
// - the provider set (order-insensitive)
// - the task type driving the scorer
func RoundKey(input models.GenInput, providerIDs []string, taskType models.TaskType) (string, error) {
	h := sha256.New()

	if err := writeString(h, input.Prompt); err != nil {
		return "", err
	}
	if err := writeString(h, input.System); err != nil {
		return "", err
	}
	if input.Temperature != nil {
		if err := writeString(h, fmt.Sprintf("%g", *input.Temperature)); err != nil {
			return "", err
		}
	}
	if input.MaxTokens != nil {
		if err := writeInt(h, *input.MaxTokens); err != nil {
			return "", err
		}
	}

	// Sort providers so the key ignores request ordering.
	sorted := make([]string, len(providerIDs))
	copy(sorted, providerIDs)
	sort.Strings(sorted)
	for _, id := range sorted {
		if err := writeString(h, id); err != nil {
			return "", err
		}
	}

	if err := writeString(h, string(taskType)); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached round outcome if it exists
func (c *Cache) Get(key string) (*models.RoundOutcome, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.cachePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		// Cache miss
		return nil, false
	}

	var outcome models.RoundOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}

	return &outcome, true
}

// Put stores a round outcome in the cache
func (c *Cache) Put(key string, outcome *models.RoundOutcome) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Ensure cache directory exists
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}

	path := c.cachePath(key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached rounds
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if directory exists
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: verify this looks like a quorum cache directory before
	// removing anything.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	// If directory is not empty, verify it contains only cache files
	if len(entries) > 0 {
		hasValidCache := false
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(entry.Name()) == ".json" {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Helper functions

func writeString(w io.Writer, s string) error {
	// Write string with null byte delimiter to prevent hash collisions
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	// Write int with null byte delimiter to prevent hash collisions
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}
