// Package config provides the Config struct and loader for quorum.yaml
// configuration files. Values resolve in three layers: hard defaults,
// overlaid by the config file, overlaid by QUORUM_* environment variables.
// Command-line flags beat all three at the call site.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/modelmux/quorum/internal/limiter"
	"github.com/modelmux/quorum/internal/models"
)

// ConfigFileName is discovered by walking up from the working directory.
const ConfigFileName = "quorum.yaml"

// Default values for configuration. New() references them and no other code
// should duplicate them.
const (
	DefaultStrategy      = "quality"
	DefaultMaxConcurrent = limiter.DefaultMaxConcurrent
	DefaultTimeoutMs     = 30000
	DefaultHistoryPath   = ".quorum/history.json"
	DefaultCacheDir      = ".quorum-cache"
	DefaultServerPort    = 8787
)

// DefaultModels is the provider set used when neither flags nor config name
// one.
var DefaultModels = []string{"openai", "anthropic"}

// DefaultsConfig holds request defaults applied when flags omit them.
type DefaultsConfig struct {
	Strategy string   `yaml:"strategy,omitempty"`
	TaskType string   `yaml:"task_type,omitempty"`
	Models   []string `yaml:"models,omitempty"`
}

// OrchestratorConfig bounds the round engine.
type OrchestratorConfig struct {
	MaxConcurrent int `yaml:"max_concurrent,omitempty" env:"QUORUM_MAX_CONCURRENT"`
	TimeoutMs     int `yaml:"timeout_ms,omitempty" env:"QUORUM_TIMEOUT_MS"`
}

// ProvidersConfig holds provider credentials and model pins. Empty model
// pins fall back to each adapter's default.
type ProvidersConfig struct {
	OpenAIKey      string `yaml:"openai_api_key,omitempty" env:"QUORUM_OPENAI_API_KEY"`
	OpenAIModel    string `yaml:"openai_model,omitempty"`
	AnthropicKey   string `yaml:"anthropic_api_key,omitempty" env:"QUORUM_ANTHROPIC_API_KEY"`
	AnthropicModel string `yaml:"anthropic_model,omitempty"`
	CopilotModel   string `yaml:"copilot_model,omitempty"`
}

// HistoryConfig holds round-log settings.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty" env:"QUORUM_HISTORY_PATH"`
}

// CacheConfig holds round-cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty" env:"QUORUM_PORT"`
}

// Config is the top-level configuration loaded from quorum.yaml.
type Config struct {
	Defaults     DefaultsConfig     `yaml:"defaults,omitempty"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator,omitempty"`
	Providers    ProvidersConfig    `yaml:"providers,omitempty"`
	History      HistoryConfig      `yaml:"history,omitempty"`
	Cache        CacheConfig        `yaml:"cache,omitempty"`
	Server       ServerConfig       `yaml:"server,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Strategy: DefaultStrategy,
			Models:   append([]string(nil), DefaultModels...),
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrent: DefaultMaxConcurrent,
			TimeoutMs:     DefaultTimeoutMs,
		},
		History: HistoryConfig{
			Path: DefaultHistoryPath,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Load finds quorum.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills missing fields with defaults, then applies QUORUM_*
// environment overrides. If no config file is found, defaults plus
// environment are returned with a nil error. Real I/O errors (e.g.
// permission denied) are returned to the caller.
func Load(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
		}
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
		}
		mergeConfig(cfg, &fileCfg)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from an explicit file path instead of
// discovering quorum.yaml. Unlike Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	mergeConfig(cfg, &fileCfg)

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Orchestrator.TimeoutMs) * time.Millisecond
}

// CacheEnabled reports whether the round cache is switched on.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled != nil && *c.Cache.Enabled
}

func (c *Config) validate() error {
	if _, err := models.ParseStrategy(c.Defaults.Strategy); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Defaults.TaskType != "" {
		if _, err := models.ParseTaskType(c.Defaults.TaskType); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	if c.Orchestrator.MaxConcurrent < 1 {
		return fmt.Errorf("invalid config: max_concurrent must be at least 1, got %d", c.Orchestrator.MaxConcurrent)
	}
	if c.Orchestrator.TimeoutMs < 1 {
		return fmt.Errorf("invalid config: timeout_ms must be positive, got %d", c.Orchestrator.TimeoutMs)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// findConfigFile walks up from dir looking for quorum.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range 10 {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	// Defaults
	if src.Defaults.Strategy != "" {
		dst.Defaults.Strategy = src.Defaults.Strategy
	}
	if src.Defaults.TaskType != "" {
		dst.Defaults.TaskType = src.Defaults.TaskType
	}
	if len(src.Defaults.Models) > 0 {
		dst.Defaults.Models = src.Defaults.Models
	}

	// Orchestrator
	if src.Orchestrator.MaxConcurrent != 0 {
		dst.Orchestrator.MaxConcurrent = src.Orchestrator.MaxConcurrent
	}
	if src.Orchestrator.TimeoutMs != 0 {
		dst.Orchestrator.TimeoutMs = src.Orchestrator.TimeoutMs
	}

	// Providers
	if src.Providers.OpenAIKey != "" {
		dst.Providers.OpenAIKey = src.Providers.OpenAIKey
	}
	if src.Providers.OpenAIModel != "" {
		dst.Providers.OpenAIModel = src.Providers.OpenAIModel
	}
	if src.Providers.AnthropicKey != "" {
		dst.Providers.AnthropicKey = src.Providers.AnthropicKey
	}
	if src.Providers.AnthropicModel != "" {
		dst.Providers.AnthropicModel = src.Providers.AnthropicModel
	}
	if src.Providers.CopilotModel != "" {
		dst.Providers.CopilotModel = src.Providers.CopilotModel
	}

	// History
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
}

func boolPtr(b bool) *bool {
	return &b
}
