// Package openai provides a chat completion client backed by the OpenAI
// chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

const DefaultModel = openai.GPT4oMini

// Client wraps go-openai behind the ChatClient interface.
type Client struct {
	client      *openai.Client
	temperature float32
}

type Config struct {
	APIKey      string
	BaseURL     string
	Temperature float32
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai chat requires an API key", domain.ErrInvalidConfiguration)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		temperature: cfg.Temperature,
	}, nil
}

// Chat sends the conversation to the named model and returns the reply.
func (c *Client) Chat(ctx context.Context, model string, messages []domain.Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domain.ErrProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model ids available to the configured account.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, classify(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai chat: %v", domain.ErrProviderError, err)
	}
	return fmt.Errorf("%w: openai chat: %v", domain.ErrProviderUnavailable, err)
}
