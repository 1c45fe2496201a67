package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/diogo/pagechat/internal/config"
	apierrors "github.com/diogo/pagechat/internal/errors"
)

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint
// (OpenAI, Groq, Together, a local llama.cpp server...)
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates the provider. BaseURL may be a full
// .../chat/completions URL; the suffix is stripped.
func NewOpenAIProvider(cfg config.LLMConfig, timeout time.Duration) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: openai provider needs a base URL", apierrors.ErrMissingConfig)
	}

	base := NormalizeBaseURL(cfg.BaseURL)
	model := cfg.Model
	if model == "" {
		model = config.DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(1),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		baseURL: base,
	}, nil
}

// NormalizeBaseURL trims an endpoint URL down to the API base the SDK expects
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return base + "/"
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the model name sent with each request
func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apierrors.NewLLMError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", apierrors.NewLLMError(p.Name(), apierrors.NewParseError("response has no choices", "choices"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
