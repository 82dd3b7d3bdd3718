package gateway

import (
	"fmt"

	"github.com/fluxai/flux-gateway/internal/config"
	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/cache"
	"github.com/fluxai/flux-gateway/internal/services/completions"
)

// Builder assembles a Gateway step by step. The zero-argument New starts
// from the default configuration; setters override pieces of it.
type Builder struct {
	cfg      *config.Config
	cfgPath  string
	provider completions.InferenceProvider
	embedder cache.Embedder
	store    cache.Store
}

// New creates a builder with default configuration
func New() *Builder {
	return &Builder{cfg: config.Default()}
}

// WithConfig replaces the whole configuration
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithConfigFile loads configuration from a YAML file at build time
func (b *Builder) WithConfigFile(path string) *Builder {
	b.cfgPath = path
	return b
}

// WithProvider sets the inference provider invoked on cache misses
func (b *Builder) WithProvider(provider completions.InferenceProvider) *Builder {
	b.provider = provider
	return b
}

// WithEmbedder overrides the embedding source for the semantic tier,
// replacing the OpenAI provider the configuration would otherwise build
func (b *Builder) WithEmbedder(embedder cache.Embedder) *Builder {
	b.embedder = embedder
	return b
}

// WithStore overrides the cache backend, bypassing the redis/memory choice
// in the configuration
func (b *Builder) WithStore(store cache.Store) *Builder {
	b.store = store
	return b
}

// WithNamespace scopes the gateway's cache keys to one tenant
func (b *Builder) WithNamespace(namespace string) *Builder {
	b.cfg.Cache.Namespace = namespace
	return b
}

// WithRedis points the cache at a Redis instance
func (b *Builder) WithRedis(redisURL string) *Builder {
	b.cfg.Cache.Backend = models.CacheBackendRedis
	b.cfg.Cache.RedisURL = redisURL
	return b
}

// WithMemoryCache switches the cache to the in-process backend
func (b *Builder) WithMemoryCache(capacity int) *Builder {
	b.cfg.Cache.Backend = models.CacheBackendMemory
	b.cfg.Cache.Capacity = capacity
	return b
}

// WithSimilarityThreshold sets the semantic-tier acceptance threshold
func (b *Builder) WithSimilarityThreshold(threshold float64) *Builder {
	b.cfg.Cache.SimilarityThreshold = threshold
	return b
}

// WithDatabase enables usage recording against the given database
func (b *Builder) WithDatabase(dbCfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &dbCfg
	return b
}

// Build wires and returns the Gateway
func (b *Builder) Build() (*Gateway, error) {
	if b.provider == nil {
		return nil, fmt.Errorf("gateway requires an inference provider")
	}

	cfg := b.cfg
	if b.cfgPath != "" {
		loaded, err := config.New(b.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	return newGateway(cfg, b.provider, b.embedder, b.store)
}
