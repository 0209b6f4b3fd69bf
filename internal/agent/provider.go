// Package agent runs browser tasks driven by a language model, including the
// human-in-the-loop suspension used when the model needs a decision it cannot
// make on its own.
package agent

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Provider errors.
var (
	ErrNoAPIKey      = errors.New("no API key configured (set ANTHROPIC_API_KEY, OPENAI_API_KEY or GOOGLE_API_KEY)")
	ErrProviderError = errors.New("provider error")
)

// Provider is a language model that can complete a prompt.
type Provider interface {
	// Name returns the provider name (e.g. "anthropic", "openai").
	Name() string

	// Complete sends a system and user prompt and returns the completion text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// providerInfo describes how to construct and credential one provider.
type providerInfo struct {
	name         string
	envKeys      []string
	defaultModel string
	build        func(apiKey, model string) (Provider, error)
}

// registry in credential preference order. The first provider with a key in
// the environment wins when the caller does not name a model.
var registry = []providerInfo{
	{
		name:         "anthropic",
		envKeys:      []string{"ANTHROPIC_API_KEY"},
		defaultModel: "claude-sonnet-4-5-20250929",
		build: func(apiKey, model string) (Provider, error) {
			return newAnthropicProvider(apiKey, model), nil
		},
	},
	{
		name:         "openai",
		envKeys:      []string{"OPENAI_API_KEY"},
		defaultModel: "gpt-4o-mini",
		build:        newOpenAIProvider,
	},
	{
		name:         "google",
		envKeys:      []string{"GOOGLE_API_KEY"},
		defaultModel: "gemini-1.5-flash",
		build:        newGoogleProvider,
	},
}

func (info providerInfo) apiKey() string {
	for _, envKey := range info.envKeys {
		if key := os.Getenv(envKey); key != "" {
			return key
		}
	}
	return ""
}

// providerForModel maps a model name to its provider by naming convention.
// Empty means no opinion and the credential order decides.
func providerForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return "openai"
	case strings.HasPrefix(model, "gemini"):
		return "google"
	}
	return ""
}

// NewProvider builds a provider for the given model name. An empty model
// selects the first provider with credentials in the environment; a named
// model selects its provider directly. ErrNoAPIKey when nothing is
// credentialed.
func NewProvider(model string) (Provider, error) {
	want := providerForModel(model)

	for _, info := range registry {
		if want != "" && info.name != want {
			continue
		}
		key := info.apiKey()
		if key == "" {
			if want != "" {
				return nil, ErrNoAPIKey
			}
			continue
		}
		m := model
		if m == "" {
			m = info.defaultModel
		}
		return info.build(key, m)
	}
	return nil, ErrNoAPIKey
}
