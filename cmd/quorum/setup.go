package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/modelmux/quorum/internal/config"
	"github.com/modelmux/quorum/internal/provider"
	"github.com/modelmux/quorum/internal/provider/anthropic"
	"github.com/modelmux/quorum/internal/provider/copilot"
	"github.com/modelmux/quorum/internal/provider/openai"
	"github.com/modelmux/quorum/internal/provider/static"
)

// knownProviders are the adapter ids buildAdapter can construct.
var knownProviders = []string{"anthropic", "copilot", "openai", "static"}

// loadConfig resolves the effective configuration. An explicit --config path
// wins; otherwise quorum.yaml is discovered by walking up from the working
// directory. Environment variables apply on top either way.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return config.Load(wd)
}

// normalizeProviderIDs trims and lowercases ids so flag and config values
// match the ids adapters register under. Empty entries are dropped.
func normalizeProviderIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// buildRegistry constructs adapters for the requested provider ids. Offline
// mode replaces every provider with a canned static adapter under the same
// id, so rounds run without network access or API keys.
func buildRegistry(cfg *config.Config, providerIDs []string, offline bool) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, id := range providerIDs {
		var adapter provider.Adapter
		if offline {
			adapter = static.New(id, static.WithModel(id+"-offline"))
		} else {
			var err error
			adapter, err = buildAdapter(cfg, id)
			if err != nil {
				return nil, err
			}
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// buildAdapter maps a provider id to a configured adapter. Hosted providers
// fail here, before any round starts, when their API key is missing.
func buildAdapter(cfg *config.Config, id string) (provider.Adapter, error) {
	switch id {
	case "openai":
		if cfg.Providers.OpenAIKey == "" {
			return nil, fmt.Errorf("provider openai needs an API key: set QUORUM_OPENAI_API_KEY or providers.openai_api_key in quorum.yaml")
		}
		var opts []openai.Option
		if cfg.Providers.OpenAIModel != "" {
			opts = append(opts, openai.WithModel(cfg.Providers.OpenAIModel))
		}
		return openai.New(cfg.Providers.OpenAIKey, opts...), nil

	case "anthropic":
		if cfg.Providers.AnthropicKey == "" {
			return nil, fmt.Errorf("provider anthropic needs an API key: set QUORUM_ANTHROPIC_API_KEY or providers.anthropic_api_key in quorum.yaml")
		}
		var opts []anthropic.Option
		if cfg.Providers.AnthropicModel != "" {
			opts = append(opts, anthropic.WithModel(cfg.Providers.AnthropicModel))
		}
		return anthropic.New(cfg.Providers.AnthropicKey, opts...), nil

	case "copilot":
		var opts []copilot.Option
		if cfg.Providers.CopilotModel != "" {
			opts = append(opts, copilot.WithModel(cfg.Providers.CopilotModel))
		}
		return copilot.New(opts...), nil

	case "static":
		return static.New("static"), nil

	default:
		return nil, fmt.Errorf("unknown provider %q (known: %s)", id, strings.Join(knownProviders, ", "))
	}
}
