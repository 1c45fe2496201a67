package llm

import (
	"context"
	"fmt"
	"time"
)

// Sampling settings shared by both prompts
const (
	Temperature      = 0.3
	TopP             = 0.9
	AnswerMaxTokens  = 200
	SummaryMaxTokens = 150
)

const answerSystemPrompt = `You are a knowledgeable assistant that provides accurate information based on webpage content.

Context from the webpage:
%s

Follow these guidelines strictly:
1. ONLY answer using information from the provided context
2. If you can't find relevant information in the context, say "I cannot answer this question based on the provided webpage content"
3. If the context seems irrelevant or unclear, say "The webpage content may not be relevant to your question"
4. When quoting information, mention the specific section (H1, P, LI, etc.)
5. Keep answers clear and well-structured
6. If the question is about numbers, dates, or specific facts, only state them if they appear exactly in the context`

const summarySystemPrompt = `You are a helpful assistant that summarizes webpage content.

Context from the webpage:
%s

Provide a brief 2-3 sentence summary of what this website or webpage is about.
Include the main topic and key points only.`

// Assistant answers questions about, and summarises, scraped page text
type Assistant struct {
	provider Provider
	timeout  time.Duration
}

// NewAssistant creates an Assistant. Each call is bounded by timeout when it is positive.
func NewAssistant(provider Provider, timeout time.Duration) *Assistant {
	return &Assistant{provider: provider, timeout: timeout}
}

// Answer replies to query using only pageContext
func (a *Assistant) Answer(ctx context.Context, query, pageContext string) (string, error) {
	return a.complete(ctx, Request{
		System:      fmt.Sprintf(answerSystemPrompt, pageContext),
		User:        "Based on the webpage content, " + query,
		MaxTokens:   AnswerMaxTokens,
		Temperature: Temperature,
		TopP:        TopP,
	})
}

// Summarize describes pageContext in two or three sentences
func (a *Assistant) Summarize(ctx context.Context, pageContext string) (string, error) {
	return a.complete(ctx, Request{
		System:      fmt.Sprintf(summarySystemPrompt, pageContext),
		User:        "Please summarize this webpage content.",
		MaxTokens:   SummaryMaxTokens,
		Temperature: Temperature,
		TopP:        TopP,
	})
}

func (a *Assistant) complete(ctx context.Context, req Request) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.provider.Complete(ctx, req)
}
