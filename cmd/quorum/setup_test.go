package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/quorum/internal/config"
)

func TestNormalizeProviderIDs(t *testing.T) {
	got := normalizeProviderIDs([]string{" OpenAI ", "ANTHROPIC", "", "static"})
	assert.Equal(t, []string{"openai", "anthropic", "static"}, got)
}

func TestBuildAdapter(t *testing.T) {
	cfg := config.New()
	cfg.Providers.OpenAIKey = "sk-test"
	cfg.Providers.AnthropicKey = "sk-ant-test"

	for _, id := range []string{"openai", "anthropic", "copilot", "static"} {
		adapter, err := buildAdapter(cfg, id)
		require.NoError(t, err, "provider %s", id)
		assert.Equal(t, id, adapter.ID())
	}
}

func TestBuildAdapterMissingKeys(t *testing.T) {
	cfg := config.New()

	_, err := buildAdapter(cfg, "openai")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUORUM_OPENAI_API_KEY")

	_, err = buildAdapter(cfg, "anthropic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUORUM_ANTHROPIC_API_KEY")
}

func TestBuildAdapterUnknownProvider(t *testing.T) {
	_, err := buildAdapter(config.New(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
	assert.Contains(t, err.Error(), "openai")
}

func TestBuildAdapterModelOverrides(t *testing.T) {
	cfg := config.New()
	cfg.Providers.OpenAIKey = "sk-test"
	cfg.Providers.OpenAIModel = "gpt-4o-mini"

	adapter, err := buildAdapter(cfg, "openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", adapter.Model())
}

func TestBuildRegistryOffline(t *testing.T) {
	registry, err := buildRegistry(config.New(), []string{"openai", "anthropic", "made-up"}, true)
	require.NoError(t, err)
	assert.Equal(t, 3, registry.Len())

	adapter, ok := registry.Lookup("made-up")
	require.True(t, ok)
	assert.Equal(t, "made-up-offline", adapter.Model())
}

func TestBuildRegistryDuplicateProvider(t *testing.T) {
	_, err := buildRegistry(config.New(), []string{"static", "static"}, false)
	require.Error(t, err)
}

func TestBuildServerRegistrySkipsUnusableProviders(t *testing.T) {
	// No API keys: only copilot and static can be built.
	registry, err := buildServerRegistry(config.New(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	_, ok := registry.Lookup("static")
	assert.True(t, ok)
	_, ok = registry.Lookup("copilot")
	assert.True(t, ok)
	_, ok = registry.Lookup("openai")
	assert.False(t, ok)
}

func TestBuildServerRegistryOffline(t *testing.T) {
	registry, err := buildServerRegistry(config.New(), true)
	require.NoError(t, err)
	assert.Equal(t, len(knownProviders), registry.Len())
}
