// Package openai provides an embedding provider backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

const DefaultModel = string(openai.SmallEmbedding3)

// Client wraps the go-openai embeddings API behind the Embedder interface.
type Client struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai embedder requires an API key", domain.ErrInvalidConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (c *Client) Name() string { return "openai" }

// Embed generates a vector embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in a single API request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: texts,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrProviderError, len(texts), len(resp.Data))
	}
	vectors := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: model %q returned an empty embedding", domain.ErrProviderError, c.model)
		}
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}

// classify maps go-openai errors onto the shared taxonomy: an API-level
// error means the service answered and rejected us, anything else means we
// never reached it.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai embeddings: %v", domain.ErrProviderError, err)
	}
	return fmt.Errorf("%w: openai embeddings: %v", domain.ErrProviderUnavailable, err)
}
