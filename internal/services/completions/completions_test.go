package completions

import (
	"context"
	"errors"
	"testing"

	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/cache"
	"github.com/fluxai/flux-gateway/internal/services/cost"
	"github.com/fluxai/flux-gateway/internal/services/pricing"
	"github.com/fluxai/flux-gateway/internal/services/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	response *models.ChatResponse
	err      error
	calls    int
}

func (p *stubProvider) Complete(_ context.Context, req models.CompletionRequest) (*models.ChatResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	resp := *p.response
	resp.Model = req.Model
	return &resp, nil
}

type stubEmbedder struct {
	vectors map[string][]float64
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

const testModel = "anthropic.claude-3-5-haiku-20241022-v1:0"

func newTestService(t *testing.T, provider *stubProvider, embedder cache.Embedder) *Service {
	t.Helper()
	store, err := cache.NewMemoryStore(100)
	require.NoError(t, err)

	cfg := models.DefaultCacheConfig()
	cfg.Backend = models.CacheBackendMemory
	engine := cache.NewEngine(store, embedder, cfg)

	accountant := cost.NewAccountant(pricing.NewTable(models.DefaultPricingConfig()))
	return NewService(engine, provider, accountant, tokenizer.NewEstimator(), nil)
}

func TestCompleteMissInvokesProvider(t *testing.T) {
	provider := &stubProvider{response: &models.ChatResponse{
		Content: "the answer",
		Usage:   models.TokenUsage{InputTokens: 100, OutputTokens: 200},
	}}
	svc := newTestService(t, provider, &stubEmbedder{})

	result, err := svc.Complete(context.Background(), models.CompletionRequest{
		Prompt: "what is Go?", Model: testModel, Region: "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "the answer", result.Response.Content)
	assert.Empty(t, result.CacheTier)
	assert.NotEmpty(t, result.RequestID)
	require.NotNil(t, result.Cost)
	// 100/1000*0.001 + 200/1000*0.005
	assert.InDelta(t, 0.0011, result.Cost.TotalCost, 1e-9)
	assert.Nil(t, result.Savings)
}

func TestCompleteSecondRequestHitsExactTier(t *testing.T) {
	provider := &stubProvider{response: &models.ChatResponse{
		Content: "cached answer",
		Usage:   models.TokenUsage{InputTokens: 100, OutputTokens: 200},
	}}
	svc := newTestService(t, provider, &stubEmbedder{})
	ctx := context.Background()
	req := models.CompletionRequest{Prompt: "what is Go?", Model: testModel, Region: "us-east-1"}

	_, err := svc.Complete(ctx, req)
	require.NoError(t, err)

	result, err := svc.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "provider must not be invoked on a hit")
	assert.Equal(t, models.CacheTierExact, result.CacheTier)
	assert.Equal(t, "cached answer", result.Response.Content)
	require.NotNil(t, result.Savings)
	assert.InDelta(t, 0.0011, result.Savings.CostSaved, 1e-9)
	// an exact hit pays for no embedding
	assert.Zero(t, result.Savings.EmbeddingCost)
	assert.InDelta(t, result.Savings.CostSaved, result.Savings.NetSavings, 1e-9)
	assert.Equal(t, 300, result.Savings.TokensSaved)
}

func TestCompleteSemanticHitCarriesSimilarityAndEmbeddingCost(t *testing.T) {
	provider := &stubProvider{response: &models.ChatResponse{
		Content: "sort with sort.Slice",
		Usage:   models.TokenUsage{InputTokens: 500, OutputTokens: 500},
	}}
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"how do I sort a slice":  {1, 0, 0},
		"how do I sort a slice?": {0.999, 0.01, 0},
	}}
	svc := newTestService(t, provider, embedder)
	ctx := context.Background()

	_, err := svc.Complete(ctx, models.CompletionRequest{Prompt: "how do I sort a slice", Model: testModel})
	require.NoError(t, err)

	result, err := svc.Complete(ctx, models.CompletionRequest{Prompt: "how do I sort a slice?", Model: testModel})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, models.CacheTierSemantic, result.CacheTier)
	assert.GreaterOrEqual(t, result.Similarity, models.DefaultSimilarityThreshold)
	require.NotNil(t, result.Savings)
	assert.Positive(t, result.Savings.EmbeddingCost)
	assert.Less(t, result.Savings.NetSavings, result.Savings.CostSaved)
}

func TestCompleteProviderErrorPropagates(t *testing.T) {
	provider := &stubProvider{err: errors.New("backend exploded")}
	svc := newTestService(t, provider, &stubEmbedder{})

	_, err := svc.Complete(context.Background(), models.CompletionRequest{Prompt: "p", Model: testModel})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestCompleteEstimatesMissingUsage(t *testing.T) {
	provider := &stubProvider{response: &models.ChatResponse{Content: "an answer with several words in it"}}
	svc := newTestService(t, provider, &stubEmbedder{})

	result, err := svc.Complete(context.Background(), models.CompletionRequest{
		Prompt: "a question that is long enough to produce tokens", Model: testModel,
	})
	require.NoError(t, err)
	assert.Positive(t, result.Response.Usage.InputTokens)
	assert.Positive(t, result.Response.Usage.OutputTokens)
	require.NotNil(t, result.Cost)
}

func TestCompleteValidatesRequest(t *testing.T) {
	svc := newTestService(t, &stubProvider{response: &models.ChatResponse{}}, &stubEmbedder{})

	_, err := svc.Complete(context.Background(), models.CompletionRequest{Model: testModel})
	assert.Error(t, err)

	_, err = svc.Complete(context.Background(), models.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestCompletePreservesCallerRequestID(t *testing.T) {
	provider := &stubProvider{response: &models.ChatResponse{Content: "x", Usage: models.TokenUsage{InputTokens: 1, OutputTokens: 1}}}
	svc := newTestService(t, provider, &stubEmbedder{})

	result, err := svc.Complete(context.Background(), models.CompletionRequest{
		RequestID: "caller-id", Prompt: "p", Model: testModel,
	})
	require.NoError(t, err)
	assert.Equal(t, "caller-id", result.RequestID)
}
