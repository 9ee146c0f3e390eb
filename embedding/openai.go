package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is a remote embedding provider speaking the OpenAI embeddings API.
// Any OpenAI-compatible endpoint works via Config.BaseURL.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAI creates a remote provider from cfg.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding: openai provider requires an API key")
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}

	dim := cfg.Dimension
	if dim <= 0 {
		dim = 1536
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cc),
		model:  model,
		dim:    dim,
	}, nil
}

// Embed implements Provider.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: remote embed failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding: remote endpoint returned no vectors")
	}
	return resp.Data[0].Embedding, nil
}

// Dimension implements Provider.
func (o *OpenAI) Dimension() int { return o.dim }

// Name implements Provider.
func (o *OpenAI) Name() string { return string(KindOpenAI) }
