// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultTimeout bounds a single chat completion call. The dialogue engine
// falls back to local rules when this elapses, so it must never be
// unbounded.
const DefaultTimeout = 15 * time.Second

// ClientInterface defines the chat completion operations consumed by the
// capability providers. Tests substitute deterministic mocks.
type ClientInterface interface {
	// GeneratePrompt generates a response from a system and user prompt.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateWithMessages generates a response from a full message list.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the default chat model.
func WithModel(model openai.ChatModel) Option {
	return func(c *Client) { c.model = model }
}

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient initializes a GenAI client using the OPENAI_API_KEY environment
// variable.
func NewClient(opts ...Option) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return NewClientWithKey(apiKey, opts...)
}

// NewClientWithKey initializes a GenAI client with an explicit API key.
func NewClientWithKey(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	c := &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   openai.ChatModelGPT4oMini,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("genai.NewClientWithKey: client created", "model", c.model, "timeout", c.timeout)
	return c, nil
}

// GeneratePrompt generates a response based on the provided system and user
// prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.GenerateWithMessages(ctx, messages)
}

// GenerateWithMessages generates a response from a full conversation
// message list. The call is bounded by the configured timeout.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Warn("genai.GenerateWithMessages: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("genai.GenerateWithMessages: no choices returned")
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping issues a minimal completion to verify connectivity and credentials.
// Used as a startup check; failure is informational, never fatal.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GeneratePrompt(ctx, "You are a connectivity check. Reply with OK.", "ping")
	if err != nil {
		return fmt.Errorf("genai ping failed: %w", err)
	}
	return nil
}
