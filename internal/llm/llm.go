// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm generates text with a large language model. One Generator
// implementation exists per provider; New selects one from configuration.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Providers.
const (
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// ErrNoAPIKey is returned when a provider that needs a key has none.
var ErrNoAPIKey = errors.New("no API key configured")

// Options tunes one generation call.
type Options struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// New returns the generator for cfg.Provider.
func New(cfg types.AIConfig) (Generator, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(cfg.Provider) {
	case ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude provider: %w (set anthropic-api-key in .secrets/)", ErrNoAPIKey)
		}
		return &Claude{APIKey: cfg.APIKey, Model: cfg.Model, Client: client, MaxRetries: cfg.MaxRetries}, nil
	case ProviderOllama, "":
		opts := []OllamaOption{WithHTTPClient(client)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		return NewOllama(opts...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want %s or %s)", cfg.Provider, ProviderClaude, ProviderOllama)
	}
}
