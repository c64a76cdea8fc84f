// Package llm wraps the completion provider. Any OpenAI-compatible chat
// endpoint works; Groq is the default in config.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the completion model used when a request names none.
const DefaultModel = "llama-3.3-70b-versatile"

// ErrNoChoices is returned when the provider answers without any completion
var ErrNoChoices = errors.New("no completion choices returned")

// CompletionAPI defines the interface for chat completion generation
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the LLM inference provider behind a single completion call.
type Client struct {
	api          CompletionAPI
	defaultModel string
}

// Options are the sampling parameters for one completion request. Zero
// values fall back to the client defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewClient creates a completion client. An empty baseURL targets the
// OpenAI API itself; an empty model selects DefaultModel.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:          openai.NewClientWithConfig(cfg),
		defaultModel: model,
	}
}

// Complete issues a single non-streaming chat completion with the given
// system instruction and user turn, and returns the completion text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
