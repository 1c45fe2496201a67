package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/diogo/pagechat/internal/config"
	apierrors "github.com/diogo/pagechat/internal/errors"
)

type fakeProvider struct {
	name  string
	reply string
	err   error

	mu       sync.Mutex
	requests []Request
	deadline bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	_, f.deadline = ctx.Deadline()
	return f.reply, f.err
}

func TestAssistant_Answer(t *testing.T) {
	p := &fakeProvider{name: "fake", reply: "It is about Go."}
	a := NewAssistant(p, 30*time.Second)

	got, err := a.Answer(context.Background(), "what is this page about?", "TITLE: Go")
	require.NoError(t, err)
	assert.Equal(t, "It is about Go.", got)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "Based on the webpage content, what is this page about?", req.User)
	assert.Contains(t, req.System, "Context from the webpage:\nTITLE: Go\n")
	assert.Contains(t, req.System, "1. ONLY answer using information from the provided context")
	assert.Equal(t, 200, req.MaxTokens)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 0.9, req.TopP)
	assert.True(t, p.deadline, "each call is bounded")
}

func TestAssistant_Summarize(t *testing.T) {
	p := &fakeProvider{name: "fake", reply: "A page."}
	a := NewAssistant(p, 0)

	got, err := a.Summarize(context.Background(), "P: hello")
	require.NoError(t, err)
	assert.Equal(t, "A page.", got)

	req := p.requests[0]
	assert.Equal(t, "Please summarize this webpage content.", req.User)
	assert.Contains(t, req.System, "P: hello")
	assert.Contains(t, req.System, "Provide a brief 2-3 sentence summary")
	assert.Equal(t, 150, req.MaxTokens)
	assert.False(t, p.deadline)
}

func TestFallbackProvider(t *testing.T) {
	failing := &fakeProvider{name: "primary", err: errors.New("503")}
	working := &fakeProvider{name: "secondary", reply: "ok"}

	got, err := NewFallbackProvider(failing, working).Complete(context.Background(), Request{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Len(t, failing.requests, 1)
	assert.Len(t, working.requests, 1)

	first := &fakeProvider{name: "primary", reply: "first"}
	unused := &fakeProvider{name: "secondary", reply: "second"}
	got, err = NewFallbackProvider(first, unused).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Empty(t, unused.requests)

	bothFail := NewFallbackProvider(failing, &fakeProvider{name: "b", err: errors.New("last")})
	_, err = bothFail.Complete(context.Background(), Request{})
	assert.EqualError(t, err, "last")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFallbackProvider(first).Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := map[string]string{
		"https://api.groq.com/openai/v1/chat/completions":  "https://api.groq.com/openai/v1/",
		"https://api.groq.com/openai/v1/chat/completions/": "https://api.groq.com/openai/v1/",
		"https://api.openai.com/v1":                        "https://api.openai.com/v1/",
		" http://localhost:8080/v1/ ":                      "http://localhost:8080/v1/",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBaseURL(in), in)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.LLMConfig{Provider: "openai", BaseURL: "http://x/v1", APIKey: "k"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, config.DefaultOpenAIModel, p.(*OpenAIProvider).Model())

	p, err = NewProvider(config.LLMConfig{Provider: "Anthropic", APIKey: "k"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = NewProvider(config.LLMConfig{Provider: "openai", APIKey: "k"}, time.Second)
	assert.ErrorIs(t, err, apierrors.ErrMissingConfig)

	_, err = NewProvider(config.LLMConfig{Provider: "cohere"}, time.Second)
	assert.Error(t, err)
}

func TestNewFromConfig_Fallback(t *testing.T) {
	cfg := config.ServerConfig{
		LLM:        config.LLMConfig{Provider: "openai", BaseURL: "http://x/v1", APIKey: "k"},
		Fallback:   config.LLMConfig{Provider: "anthropic", APIKey: "k2"},
		LLMTimeout: time.Second,
	}
	p, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "fallback", p.Name())

	cfg.Fallback = config.LLMConfig{}
	p, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama3-8b-8192",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Hello there.  "}}]
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{
		BaseURL: srv.URL + "/openai/v1/chat/completions",
		APIKey:  "test-key",
	}, 5*time.Second)
	require.NoError(t, err)

	got, err := p.Complete(context.Background(), Request{
		System:      "sys",
		User:        "hi",
		MaxTokens:   200,
		Temperature: 0.3,
		TopP:        0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", got)

	assert.Equal(t, "llama3-8b-8192", gjson.Get(body, "model").String())
	assert.Equal(t, "system", gjson.Get(body, "messages.0.role").String())
	assert.Equal(t, "sys", gjson.Get(body, "messages.0.content").String())
	assert.Equal(t, "user", gjson.Get(body, "messages.1.role").String())
	assert.Equal(t, 0.3, gjson.Get(body, "temperature").Float())
	assert.Equal(t, 0.9, gjson.Get(body, "top_p").Float())
	assert.Equal(t, int64(200), gjson.Get(body, "max_tokens").Int())
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{BaseURL: srv.URL, APIKey: "bad"}, 5*time.Second)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{User: "hi"})
	require.Error(t, err)
	var llmErr *apierrors.LLMError
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, "openai", llmErr.Provider)
	assert.True(t, strings.HasPrefix(err.Error(), "LLM API error (openai):"))
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Summary text."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(config.LLMConfig{BaseURL: srv.URL, APIKey: "k"}, 5*time.Second)

	got, err := p.Complete(context.Background(), Request{System: "sys", User: "hi", MaxTokens: 150, Temperature: 0.3, TopP: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "Summary text.", got)

	assert.Equal(t, DefaultAnthropicModel, gjson.Get(body, "model").String())
	assert.Equal(t, int64(150), gjson.Get(body, "max_tokens").Int())
	assert.Equal(t, "sys", gjson.Get(body, "system.0.text").String())
	assert.Equal(t, "hi", gjson.Get(body, "messages.0.content.0.text").String())
	assert.False(t, gjson.Get(body, "top_p").Exists())
}
