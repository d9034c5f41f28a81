// Package llm wraps the text-generation oracle behind a narrow interface.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// FallbackReply is dispatched when the oracle cannot produce a response
const FallbackReply = "I'm having trouble thinking right now."

// requestTimeout bounds a single oracle call so a stalled upstream cannot
// stall the pipeline.
const requestTimeout = 30 * time.Second

// Oracle generates reply text from a system directive and the raw user text
type Oracle interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client implements Oracle using the OpenAI chat completions API
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates an OpenAI-backed oracle
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}

	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

var _ Oracle = (*Client)(nil)

// Generate performs a single non-streaming completion. Output is capped at
// 300 tokens to keep replies SMS-sized.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
