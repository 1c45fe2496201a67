package llm

import (
	"context"
	"fmt"

	"github.com/diogo/pagechat/internal/logger"
)

// FallbackProvider tries its providers in order and returns the first success
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates the chain; primary goes first
func NewFallbackProvider(primary Provider, fallbacks ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: append([]Provider{primary}, fallbacks...)}
}

func (f *FallbackProvider) Name() string {
	return "fallback"
}

func (f *FallbackProvider) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for i, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := p.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				logger.InfoCF("llm", "Fallback provider succeeded", map[string]interface{}{"provider": p.Name(), "attempt": i + 1})
			}
			return text, nil
		}

		logger.WarnCF("llm", "Provider failed", map[string]interface{}{
			"provider": p.Name(),
			"attempt":  i + 1,
			"error":    err.Error(),
		})
		lastErr = err
	}

	if lastErr == nil {
		return "", fmt.Errorf("no LLM providers configured")
	}
	return "", lastErr
}
