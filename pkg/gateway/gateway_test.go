package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/fluxai/flux-gateway/internal/config"
	"github.com/fluxai/flux-gateway/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct {
	calls int
}

func (p *echoProvider) Complete(_ context.Context, req models.CompletionRequest) (*models.ChatResponse, error) {
	p.calls++
	return &models.ChatResponse{
		Model:   req.Model,
		Content: "echo: " + req.Prompt,
		Usage:   models.TokenUsage{InputTokens: 10, OutputTokens: 10},
	}, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	// a toy embedding good enough for wiring tests
	v := make([]float64, 4)
	for i, r := range text {
		v[i%4] += float64(r)
	}
	return v, nil
}

const testModel = "amazon.titan-text-lite-v1"

func TestBuilderRequiresProvider(t *testing.T) {
	_, err := New().Build()
	assert.Error(t, err)
}

func TestGatewayMemoryBackendRoundTrip(t *testing.T) {
	provider := &echoProvider{}
	gw, err := New().
		WithMemoryCache(100).
		WithProvider(provider).
		WithEmbedder(fixedEmbedder{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	ctx := context.Background()

	req := models.CompletionRequest{Prompt: "ping", Model: testModel, Region: "us-east-1"}
	first, err := gw.Complete(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, first.CacheTier)

	second, err := gw.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.CacheTierExact, second.CacheTier)
	assert.Equal(t, 1, provider.calls)

	stats := gw.CacheStats()
	assert.Equal(t, int64(1), stats.ExactHits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGatewayRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	gw, err := New().
		WithRedis("redis://"+mr.Addr()).
		WithProvider(&echoProvider{}).
		WithEmbedder(fixedEmbedder{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	ctx := context.Background()

	gw.Store(ctx, "stored prompt", testModel, models.ChatResponse{Content: "stored"})
	match, ok := gw.Lookup(ctx, "stored prompt", testModel)
	require.True(t, ok)
	assert.Equal(t, "stored", match.Response.Content)

	require.NoError(t, gw.ClearCache(ctx))
	_, ok = gw.Lookup(ctx, "stored prompt", testModel)
	assert.False(t, ok)
}

func TestGatewayNamespaceIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	build := func(ns string) *Gateway {
		gw, err := New().
			WithRedis("redis://"+mr.Addr()).
			WithNamespace(ns).
			WithProvider(&echoProvider{}).
			WithEmbedder(fixedEmbedder{}).
			Build()
		require.NoError(t, err)
		t.Cleanup(func() { _ = gw.Close() })
		return gw
	}
	ctx := context.Background()

	a, b := build("tenant-a"), build("tenant-b")
	a.Store(ctx, "p", testModel, models.ChatResponse{Content: "a"})
	b.Store(ctx, "p", testModel, models.ChatResponse{Content: "b"})

	require.NoError(t, a.ClearCache(ctx))
	_, ok := a.Lookup(ctx, "p", testModel)
	assert.False(t, ok)
	match, ok := b.Lookup(ctx, "p", testModel)
	require.True(t, ok)
	assert.Equal(t, "b", match.Response.Content)
}

func TestGatewayModelCostSurface(t *testing.T) {
	gw, err := New().
		WithMemoryCache(10).
		WithProvider(&echoProvider{}).
		WithEmbedder(fixedEmbedder{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	usage := models.TokenUsage{InputTokens: 1000, OutputTokens: 1000}
	breakdowns := gw.CompareModelCosts("us-east-1", usage)
	assert.NotEmpty(t, breakdowns)

	cheapest, ok := gw.CheapestModel("us-east-1", usage)
	require.True(t, ok)
	assert.Equal(t, "amazon.titan-text-lite-v1", cheapest.ModelID)
}

func TestGatewayUsageStatsWithoutDatabase(t *testing.T) {
	gw, err := New().
		WithMemoryCache(10).
		WithProvider(&echoProvider{}).
		WithEmbedder(fixedEmbedder{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	_, err = gw.UsageStats(context.Background(), "acct", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestGatewayRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = models.CacheBackendRedis
	cfg.Cache.RedisURL = ""
	cfg.Cache.SemanticEnabled = false

	_, err := New().WithConfig(cfg).WithProvider(&echoProvider{}).Build()
	require.Error(t, err)

	var verr *config.ValidationError
	assert.ErrorAs(t, err, &verr)
}
