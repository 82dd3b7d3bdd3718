package embeddings

import (
	"context"
	"fmt"

	"github.com/fluxai/flux-gateway/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
)

// OpenAIProvider generates embeddings through the OpenAI embeddings endpoint
type OpenAIProvider struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIProvider creates an OpenAI-backed embedding provider
func NewOpenAIProvider(cfg models.EmbeddingsConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set in embeddings configuration")
	}

	model := cfg.Model
	if model == "" {
		model = models.DefaultEmbeddingModel
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = models.DefaultEmbeddingDimension
	}

	opts := []openaiOption.RequestOption{openaiOption.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(cfg.BaseURL))
	}

	fiberlog.Infof("OpenAIProvider: Initialized with model=%s, dimension=%d", model, dimension)

	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed requests a single embedding from the OpenAI API
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(p.model),
	}
	if p.dimension > 0 {
		params.Dimensions = openai.Int(int64(p.dimension))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	return resp.Data[0].Embedding, nil
}

// Dimension returns the configured embedding dimension
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Model returns the embedding model identifier
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Close is a no-op for the HTTP-backed provider
func (p *OpenAIProvider) Close() error {
	return nil
}
