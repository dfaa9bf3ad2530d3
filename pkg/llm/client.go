// Package llm provides the OpenAI-compatible model invocation client for
// the pattern analysis pipeline.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client defines the interface for model invocations.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete issues a single chat completion. The call is bounded by the
	// configured hard timeout; no retries are attempted here - retry policy
	// belongs to the caller.
	Complete(ctx context.Context, systemMessage, prompt string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint    string        // Base URL, e.g., "https://api.openai.com/v1"
	Model       string        // Model name, e.g., "gpt-4o"
	APIKey      string        // Optional for local endpoints
	Timeout     time.Duration // Hard bound on a single invocation
	Temperature float64
}

// client provides access to OpenAI-compatible LLM endpoints.
type client struct {
	api         *openai.Client
	endpoint    string
	model       string
	timeout     time.Duration
	temperature float64
	logger      *zap.Logger
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 180 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &client{
		api:         openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		timeout:     timeout,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm"),
	}, nil
}

var _ Client = (*client)(nil)

// Complete issues a single chat completion bounded by the hard timeout.
func (c *client) Complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", c.temperature))

	start := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", ClassifyError(ctx, fmt.Errorf("no choices in response"))
	}

	content := resp.Choices[0].Message.Content

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return content, nil
}

// GetModel returns the configured model name.
func (c *client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *client) GetEndpoint() string {
	return c.endpoint
}
