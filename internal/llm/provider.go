// Package llm wraps the chat-completion providers the assistant can use.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/pagechat/internal/config"
)

// Request is a single-turn completion request
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Provider completes a request
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// NewProvider builds the provider described by cfg
func NewProvider(cfg config.LLMConfig, timeout time.Duration) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg, timeout)
	case "anthropic":
		return NewAnthropicProvider(cfg, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewFromConfig builds the primary provider and, when configured, wraps it with the fallback
func NewFromConfig(cfg config.ServerConfig) (Provider, error) {
	primary, err := NewProvider(cfg.LLM, cfg.LLMTimeout)
	if err != nil {
		return nil, err
	}
	if !cfg.HasFallback() {
		return primary, nil
	}

	fallback, err := NewProvider(cfg.Fallback, cfg.LLMTimeout)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return NewFallbackProvider(primary, fallback), nil
}
