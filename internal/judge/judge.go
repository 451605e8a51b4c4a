// Package judge wraps the external model collaborator that answers
// single-shot similarity prompts. The engine batches and rate-limits calls
// itself; this package only bounds how many are in flight at once.
package judge

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
)

// Judge answers a free-text prompt with free-text output, expected to
// contain an embedded JSON object. Implementations own their call timeout.
type Judge interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Anthropic is a Judge backed by the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	sem       *semaphore.Weighted
}

// Option configures an Anthropic judge.
type Option func(*Anthropic)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(a *Anthropic) {
		a.model = model
	}
}

// WithMaxTokens sets the response token budget.
func WithMaxTokens(n int64) Option {
	return func(a *Anthropic) {
		a.maxTokens = n
	}
}

// WithMaxConcurrent bounds how many calls may be in flight simultaneously.
func WithMaxConcurrent(n int64) Option {
	return func(a *Anthropic) {
		if n > 0 {
			a.sem = semaphore.NewWeighted(n)
		}
	}
}

// NewAnthropic creates an Anthropic-backed judge. The API key comes from
// ANTHROPIC_API_KEY.
func NewAnthropic(opts ...Option) (*Anthropic, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not set")
	}

	a := &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-sonnet-4-5",
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Ask implements Judge.
func (a *Anthropic) Ask(ctx context.Context, prompt string) (string, error) {
	if a.sem != nil {
		if err := a.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer a.sem.Release(1)
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
