package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearQuorumEnv unsets every QUORUM_* variable for the duration of the
// test so ambient shell state cannot leak into assertions.
func clearQuorumEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "QUORUM_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "quality", cfg.Defaults.Strategy)
	assert.Empty(t, cfg.Defaults.TaskType)
	assert.Equal(t, []string{"openai", "anthropic"}, cfg.Defaults.Models)
	assert.Equal(t, 3, cfg.Orchestrator.MaxConcurrent)
	assert.Equal(t, 30000, cfg.Orchestrator.TimeoutMs)
	assert.Equal(t, ".quorum/history.json", cfg.History.Path)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, ".quorum-cache", cfg.Cache.Dir)
	assert.Equal(t, 8787, cfg.Server.Port)
}

func TestLoadNoFileReturnsDefaults(t *testing.T) {
	clearQuorumEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearQuorumEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
defaults:
  strategy: balanced
  models: [static]
orchestrator:
  timeout_ms: 5000
cache:
  enabled: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "balanced", cfg.Defaults.Strategy)
	assert.Equal(t, []string{"static"}, cfg.Defaults.Models)
	assert.Equal(t, 5000, cfg.Orchestrator.TimeoutMs)
	assert.True(t, cfg.CacheEnabled())

	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Orchestrator.MaxConcurrent)
	assert.Equal(t, DefaultHistoryPath, cfg.History.Path)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadWalksUpToFindConfig(t *testing.T) {
	clearQuorumEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "server:\n  port: 9100\n")

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadStopsAfterTenLevels(t *testing.T) {
	clearQuorumEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "server:\n  port: 9100\n")

	deep := root
	for range 11 {
		deep = filepath.Join(deep, "d")
	}
	require.NoError(t, os.MkdirAll(deep, 0o755))

	cfg, err := Load(deep)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port, "config more than 10 levels up is ignored")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearQuorumEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
orchestrator:
  max_concurrent: 5
  timeout_ms: 5000
history:
  path: from-file.json
server:
  port: 9000
`)

	t.Setenv("QUORUM_MAX_CONCURRENT", "7")
	t.Setenv("QUORUM_TIMEOUT_MS", "2500")
	t.Setenv("QUORUM_HISTORY_PATH", "from-env.json")
	t.Setenv("QUORUM_PORT", "7777")
	t.Setenv("QUORUM_OPENAI_API_KEY", "sk-test")
	t.Setenv("QUORUM_ANTHROPIC_API_KEY", "ak-test")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Orchestrator.MaxConcurrent)
	assert.Equal(t, 2500, cfg.Orchestrator.TimeoutMs)
	assert.Equal(t, "from-env.json", cfg.History.Path)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAIKey)
	assert.Equal(t, "ak-test", cfg.Providers.AnthropicKey)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearQuorumEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "defaults: [not: a: mapping\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing quorum.yaml")
}

func TestLoadValidatesValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "unknown strategy",
			yaml:    "defaults:\n  strategy: warp\n",
			wantMsg: "invalid strategy",
		},
		{
			name:    "unknown task type",
			yaml:    "defaults:\n  task_type: poetry\n",
			wantMsg: "invalid task type",
		},
		{
			name:    "zero concurrency from env",
			env:     map[string]string{"QUORUM_MAX_CONCURRENT": "0"},
			wantMsg: "max_concurrent must be at least 1",
		},
		{
			name:    "negative timeout",
			yaml:    "orchestrator:\n  timeout_ms: -5\n",
			wantMsg: "timeout_ms must be positive",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  port: 70000\n",
			wantMsg: "port must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearQuorumEnv(t)
			dir := t.TempDir()
			if tt.yaml != "" {
				writeConfig(t, dir, tt.yaml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTimeoutHelper(t *testing.T) {
	cfg := New()
	cfg.Orchestrator.TimeoutMs = 2500
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
}

func TestLoadFile(t *testing.T) {
	clearQuorumEnv(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  strategy: cost\nserver:\n  port: 9300\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cost", cfg.Defaults.Strategy)
	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, 30000, cfg.Orchestrator.TimeoutMs)
}

func TestLoadFileMissing(t *testing.T) {
	clearQuorumEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}
