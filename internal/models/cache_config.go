package models

// CacheBackendType represents the type of cache backend to use
type CacheBackendType string

const (
	CacheBackendRedis  CacheBackendType = "redis"
	CacheBackendMemory CacheBackendType = "memory"
)

// CacheConfig holds configuration for the dual-tier response cache
type CacheConfig struct {
	// Backend configuration
	Backend  CacheBackendType `json:"backend,omitzero" yaml:"backend"`     // "redis" or "memory"
	RedisURL string           `json:"redis_url,omitzero" yaml:"redis_url"` // Required if backend is "redis"
	Capacity int              `json:"capacity,omitzero" yaml:"capacity"`   // Required if backend is "memory" (LRU cache size)

	// Cache behavior
	Enabled             bool    `json:"enabled,omitzero" yaml:"enabled"`
	SemanticEnabled     bool    `json:"semantic_enabled,omitzero" yaml:"semantic_enabled"`
	ExactMatchFirst     *bool   `json:"exact_match_first,omitempty" yaml:"exact_match_first,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitzero" yaml:"similarity_threshold"`
	TTLSeconds          int     `json:"ttl_seconds,omitzero" yaml:"ttl_seconds"`
	EmbeddingTTLSeconds int     `json:"embedding_ttl_seconds,omitzero" yaml:"embedding_ttl_seconds"`

	// MaxCandidates caps the per-model candidate list; oldest entries are
	// evicted first. Zero means the default cap.
	MaxCandidates int `json:"max_candidates,omitzero" yaml:"max_candidates"`

	// Namespace scopes every key (and the clear operation) to one tenant.
	// Empty means the shared global namespace.
	Namespace string `json:"namespace,omitzero" yaml:"namespace"`
}

const (
	DefaultSimilarityThreshold = 0.95
	DefaultCacheTTLSeconds     = 3600
	DefaultMaxCandidates       = 1024
	DefaultMemoryCapacity      = 1000
)

// DefaultCacheConfig returns the cache configuration used when no config
// file section is present
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:             CacheBackendRedis,
		Enabled:             true,
		SemanticEnabled:     true,
		SimilarityThreshold: DefaultSimilarityThreshold,
		TTLSeconds:          DefaultCacheTTLSeconds,
		MaxCandidates:       DefaultMaxCandidates,
	}
}

// ExactFirst reports whether the exact tier is consulted before the semantic
// tier. Defaults to true when unset.
func (c CacheConfig) ExactFirst() bool {
	if c.ExactMatchFirst == nil {
		return true
	}
	return *c.ExactMatchFirst
}
