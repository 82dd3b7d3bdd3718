package models

import "time"

const (
	// CacheTierExact marks a hit found via the deterministic prompt digest
	CacheTierExact = "exact"
	// CacheTierSemantic marks a hit found via embedding similarity
	CacheTierSemantic = "semantic"
)

// CacheEntry is the persisted unit of the response cache. Entries are written
// once on a cache miss and never mutated; they disappear by TTL expiry or an
// explicit clear.
type CacheEntry struct {
	CacheID      string       `json:"cache_id"`
	ModelID      string       `json:"model_id"`
	PromptDigest string       `json:"prompt_digest"`
	Embedding    []float64    `json:"embedding,omitempty"`
	Response     ChatResponse `json:"response"`
	CreatedAt    time.Time    `json:"created_at"`
	TTLSeconds   int          `json:"ttl_seconds"`
}

// CacheMatch is the result of a successful cache lookup
type CacheMatch struct {
	Response   ChatResponse `json:"response"`
	Tier       string       `json:"tier"`
	Similarity float64      `json:"similarity,omitzero"` // set only for semantic matches
	CacheID    string       `json:"cache_id,omitzero"`
}

// CacheStats is the snapshot returned by the reporting surface. Counters
// cover the lifetime of the engine instance and reset only on an explicit
// clear.
type CacheStats struct {
	ExactHits           int64   `json:"exact_hits"`
	SemanticHits        int64   `json:"semantic_hits"`
	Misses              int64   `json:"misses"`
	TotalRequests       int64   `json:"total_requests"`
	HitRate             float64 `json:"hit_rate"`
	CostSaved           float64 `json:"cost_saved"`
	EmbeddingCost       float64 `json:"embedding_cost"`
	NetSavings          float64 `json:"net_savings"`
	SemanticEnabled     bool    `json:"semantic_enabled"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}
