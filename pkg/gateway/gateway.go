// Package gateway is the embedding surface of the cost-aware completion
// gateway. Callers construct a Gateway with a Builder, hand it an inference
// provider, and get cached, cost-accounted completions back.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxai/flux-gateway/internal/config"
	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/cache"
	"github.com/fluxai/flux-gateway/internal/services/completions"
	"github.com/fluxai/flux-gateway/internal/services/cost"
	"github.com/fluxai/flux-gateway/internal/services/database"
	"github.com/fluxai/flux-gateway/internal/services/embeddings"
	"github.com/fluxai/flux-gateway/internal/services/pricing"
	"github.com/fluxai/flux-gateway/internal/services/tokenizer"
	"github.com/fluxai/flux-gateway/internal/services/usage"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Gateway bundles the cache engine, cost accounting and usage recording
// behind one handle
type Gateway struct {
	cfg         *config.Config
	engine      *cache.Engine
	embedder    *embeddings.Service
	accountant  *cost.Accountant
	completions *completions.Service
	db          *database.DB
	usage       *usage.Service
	usageWorker *usage.Worker
}

func newGateway(cfg *config.Config, provider completions.InferenceProvider, embedder cache.Embedder, store cache.Store) (*Gateway, error) {
	// injected dependencies satisfy the configuration requirements they
	// replace, so validate a copy with those fields treated as present
	vcfg := *cfg
	if embedder != nil {
		if vcfg.Embeddings.APIKey == "" {
			vcfg.Embeddings.APIKey = "injected"
		}
		if vcfg.Embeddings.Dimension <= 0 {
			vcfg.Embeddings.Dimension = 1
		}
	}
	if store != nil && vcfg.Cache.RedisURL == "" {
		vcfg.Cache.RedisURL = "redis://injected"
	}
	if err := vcfg.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	var embeddingSvc *embeddings.Service
	if cfg.Cache.SemanticEnabled && embedder == nil {
		oai, err := embeddings.NewOpenAIProvider(cfg.Embeddings)
		if err != nil {
			return nil, fmt.Errorf("embedding provider: %w", err)
		}
		embeddingSvc = embeddings.NewService(oai, cfg.Embeddings)
		embedder = embeddingSvc
	}

	if store == nil {
		var err error
		store, err = newStore(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
	}

	table := pricing.NewTable(cfg.Pricing)
	accountant := cost.NewAccountant(table)
	estimator := tokenizer.NewEstimator()
	engine := cache.NewEngine(store, embedder, cfg.Cache)

	var db *database.DB
	var usageSvc *usage.Service
	var usageWorker *usage.Worker
	var recorder completions.UsageRecorder
	if cfg.Database != nil {
		var err error
		db, err = database.New(*cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("usage database: %w", err)
		}
		usageSvc = usage.NewService(db.DB)
		if cfg.Database.Type == models.ClickHouse {
			err = database.RunClickHouseMigrations(db.DB)
		} else {
			err = usageSvc.AutoMigrate()
		}
		if err != nil {
			return nil, fmt.Errorf("usage migrations: %w", err)
		}
		usageWorker = usage.NewWorker(usageSvc, 2, 256)
		recorder = usageWorker
	}

	fiberlog.Infof("Gateway: initialized (backend=%s, semantic=%t, region=%s)",
		cfg.Cache.Backend, cfg.Cache.SemanticEnabled, cfg.Pricing.Region)

	return &Gateway{
		cfg:         cfg,
		engine:      engine,
		embedder:    embeddingSvc,
		accountant:  accountant,
		completions: completions.NewService(engine, provider, accountant, estimator, recorder),
		db:          db,
		usage:       usageSvc,
		usageWorker: usageWorker,
	}, nil
}

func newStore(ctx context.Context, cfg models.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case models.CacheBackendMemory:
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = models.DefaultMemoryCapacity
		}
		return cache.NewMemoryStore(capacity)
	case models.CacheBackendRedis, "":
		return cache.NewRedisStore(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}

// Complete serves one completion request through the cache and cost
// pipeline
func (g *Gateway) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	return g.completions.Complete(ctx, req)
}

// Lookup checks the cache without invoking the inference provider
func (g *Gateway) Lookup(ctx context.Context, prompt, model string) (*models.CacheMatch, bool) {
	return g.engine.Lookup(ctx, prompt, model)
}

// Store inserts a response into the cache directly, bypassing the provider
// pipeline
func (g *Gateway) Store(ctx context.Context, prompt, model string, resp models.ChatResponse) {
	g.engine.Store(ctx, prompt, model, resp)
}

// ClearCache removes cached entries for this gateway's namespace and resets
// the cache counters
func (g *Gateway) ClearCache(ctx context.Context) error {
	return g.engine.Clear(ctx)
}

// CacheStats returns the live cache counters
func (g *Gateway) CacheStats() models.CacheStats {
	return g.engine.Stats()
}

// UsageStats aggregates recorded usage for an account over a time window.
// It fails when no usage database is configured.
func (g *Gateway) UsageStats(ctx context.Context, accountID string, start, end time.Time) (*models.UsageStats, error) {
	if g.usage == nil {
		return nil, fmt.Errorf("no usage database configured")
	}
	return g.usage.GetUsageStats(ctx, accountID, start, end)
}

// CompareModelCosts prices a token load across every known model, cheapest
// first
func (g *Gateway) CompareModelCosts(region string, usage models.TokenUsage) []models.CostBreakdown {
	return g.accountant.CompareModelCosts(region, usage)
}

// CheapestModel returns the lowest-cost completion model for a token load
func (g *Gateway) CheapestModel(region string, usage models.TokenUsage) (models.CostBreakdown, bool) {
	return g.accountant.CheapestModel(region, usage)
}

// Close releases the cache backend, the embedding provider and the usage
// database
func (g *Gateway) Close() error {
	var firstErr error
	if g.usageWorker != nil {
		g.usageWorker.Stop()
	}
	if err := g.engine.Close(); err != nil {
		firstErr = err
	}
	if g.embedder != nil {
		if err := g.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
