package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/similarity"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// candidate fetches run concurrently; this bounds the fan-out per lookup
const embeddingFetchConcurrency = 8

// Embedder turns prompt text into a vector. Satisfied by
// *embeddings.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Engine is the dual-tier response cache. The exact tier matches on a
// prompt digest; the semantic tier matches stored embeddings against the
// query embedding by cosine similarity. Every backend or embedding failure
// degrades to a cache miss so callers never see the cache as a point of
// failure.
type Engine struct {
	store    Store
	embedder Embedder
	cfg      models.CacheConfig
	keys     Keys
	stats    statsTracker
}

// NewEngine creates a cache engine. embedder may be nil, which disables the
// semantic tier regardless of configuration.
func NewEngine(store Store, embedder Embedder, cfg models.CacheConfig) *Engine {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = models.DefaultSimilarityThreshold
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = models.DefaultMaxCandidates
	}
	if embedder == nil {
		cfg.SemanticEnabled = false
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		keys:     NewKeys(cfg.Namespace),
	}
}

// Digest returns the exact-tier key material for a model/prompt pair
func Digest(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + ":" + prompt))
	return hex.EncodeToString(sum[:])[:16]
}

// Lookup checks both cache tiers for a response to the given prompt. It
// returns (match, true) on a hit and (nil, false) on a miss; failures of the
// backend or the embedding provider count as misses.
func (e *Engine) Lookup(ctx context.Context, prompt, model string) (*models.CacheMatch, bool) {
	if !e.cfg.Enabled {
		return nil, false
	}

	tiers := []func(context.Context, string, string) (*models.CacheMatch, error){
		e.lookupExact, e.lookupSemantic,
	}
	if !e.cfg.ExactFirst() {
		tiers[0], tiers[1] = tiers[1], tiers[0]
	}

	for _, tier := range tiers {
		match, err := tier(ctx, prompt, model)
		if err != nil {
			if canceled(err) {
				// the caller abandoned the request; leave stats untouched
				return nil, false
			}
			fiberlog.Warnf("Cache: tier lookup failed, treating as miss: %v", err)
			continue
		}
		if match != nil {
			e.stats.recordHit(match.Tier)
			return match, true
		}
	}

	e.stats.recordMiss()
	return nil, false
}

func (e *Engine) lookupExact(ctx context.Context, prompt, model string) (*models.CacheMatch, error) {
	raw, err := e.store.Get(ctx, e.keys.Exact(Digest(model, prompt)))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp models.ChatResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("corrupt exact entry: %w", err)
	}
	return &models.CacheMatch{Response: resp, Tier: models.CacheTierExact}, nil
}

func (e *Engine) lookupSemantic(ctx context.Context, prompt, model string) (*models.CacheMatch, error) {
	if !e.cfg.SemanticEnabled {
		return nil, nil
	}

	query, err := e.embedder.Embed(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	if isZeroVector(query) {
		return nil, nil
	}

	ids, err := e.store.ListRange(ctx, e.keys.SemanticList(model), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("candidate list: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vectors, err := e.fetchEmbeddings(ctx, ids)
	if err != nil {
		return nil, err
	}

	scores, mismatched := similarity.BatchCosine(query, vectors)
	if len(mismatched) > 0 {
		fiberlog.Warnf("Cache: %d candidate(s) with mismatched dimensions excluded for model %s", len(mismatched), model)
	}
	threshold := e.cfg.SimilarityThreshold

	// walk candidates best-first; a candidate whose response has expired out
	// from under its list entry is skipped, not an error
	taken := make([]bool, len(ids))
	for {
		best := -1
		bestScore := threshold
		for i, score := range scores {
			if taken[i] || vectors[i] == nil {
				continue
			}
			if best == -1 && score >= threshold {
				best, bestScore = i, score
				continue
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best == -1 {
			return nil, nil
		}
		taken[best] = true

		raw, err := e.store.Get(ctx, e.keys.Response(ids[best]))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var resp models.ChatResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			fiberlog.Warnf("Cache: corrupt semantic entry %s, skipping: %v", ids[best], err)
			continue
		}
		return &models.CacheMatch{
			Response:   resp,
			Tier:       models.CacheTierSemantic,
			Similarity: bestScore,
			CacheID:    ids[best],
		}, nil
	}
}

// fetchEmbeddings loads stored candidate vectors concurrently. Missing or
// corrupt vectors come back nil so scoring can skip them.
func (e *Engine) fetchEmbeddings(ctx context.Context, ids []string) ([][]float64, error) {
	vectors := make([][]float64, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embeddingFetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			raw, err := e.store.Get(gctx, e.keys.Embedding(id))
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			var vec []float64
			if err := json.Unmarshal([]byte(raw), &vec); err != nil {
				fiberlog.Warnf("Cache: corrupt embedding for %s, skipping: %v", id, err)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching candidate embeddings: %w", err)
	}
	return vectors, nil
}

// Store writes a response into both tiers. Errors are logged and swallowed:
// a failed write means the next identical request is a miss, nothing more.
func (e *Engine) Store(ctx context.Context, prompt, model string, resp models.ChatResponse) {
	if !e.cfg.Enabled {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		fiberlog.Errorf("Cache: failed to encode response for storage: %v", err)
		return
	}

	exactTTL := secondsToTTL(e.cfg.TTLSeconds)
	if err := e.store.Set(ctx, e.keys.Exact(Digest(model, prompt)), string(payload), exactTTL); err != nil {
		fiberlog.Warnf("Cache: exact store failed: %v", err)
	}

	if !e.cfg.SemanticEnabled {
		return
	}
	e.storeSemantic(ctx, prompt, model, string(payload))
}

// storeSemantic writes the embedding/response pair under one cache ID and
// registers it in the per-model candidate list. The vector and the response
// share a TTL so one can never outlive the other.
func (e *Engine) storeSemantic(ctx context.Context, prompt, model, payload string) {
	vec, err := e.embedder.Embed(ctx, prompt)
	if err != nil {
		fiberlog.Warnf("Cache: embedding for semantic store failed: %v", err)
		return
	}
	if isZeroVector(vec) {
		return
	}

	vecJSON, err := json.Marshal(vec)
	if err != nil {
		fiberlog.Errorf("Cache: failed to encode embedding: %v", err)
		return
	}

	pairTTL := secondsToTTL(e.cfg.EmbeddingTTLSeconds)
	if pairTTL == 0 {
		pairTTL = secondsToTTL(e.cfg.TTLSeconds)
	}

	cacheID := uuid.NewString()
	if err := e.store.Set(ctx, e.keys.Embedding(cacheID), string(vecJSON), pairTTL); err != nil {
		fiberlog.Warnf("Cache: embedding store failed: %v", err)
		return
	}
	if err := e.store.Set(ctx, e.keys.Response(cacheID), payload, pairTTL); err != nil {
		fiberlog.Warnf("Cache: response store failed: %v", err)
		if delErr := e.store.Delete(ctx, e.keys.Embedding(cacheID)); delErr != nil {
			fiberlog.Warnf("Cache: orphan embedding cleanup failed: %v", delErr)
		}
		return
	}

	listKey := e.keys.SemanticList(model)
	if err := e.store.ListAppend(ctx, listKey, cacheID); err != nil {
		fiberlog.Warnf("Cache: candidate list append failed: %v", err)
		return
	}
	if err := e.store.ListTrim(ctx, listKey, -int64(e.cfg.MaxCandidates), -1); err != nil {
		fiberlog.Warnf("Cache: candidate list trim failed: %v", err)
	}
	if err := e.store.Expire(ctx, listKey, pairTTL); err != nil {
		fiberlog.Warnf("Cache: candidate list expire failed: %v", err)
	}
}

// Clear removes cached entries. A namespaced engine clears only its own
// prefix; an unscoped engine flushes the whole backend. Counters reset in
// both cases.
func (e *Engine) Clear(ctx context.Context) error {
	if e.keys.Namespaced() {
		n, err := e.store.DeleteByPrefix(ctx, e.keys.Prefix())
		if err != nil {
			return fmt.Errorf("clearing namespace %q: %w", e.cfg.Namespace, err)
		}
		fiberlog.Infof("Cache: cleared %d keys under %s", n, e.keys.Prefix())
	} else {
		if err := e.store.FlushAll(ctx); err != nil {
			return fmt.Errorf("flushing cache backend: %w", err)
		}
		fiberlog.Info("Cache: flushed all entries")
	}
	e.stats.reset()
	return nil
}

// Stats returns a point-in-time snapshot of the engine counters
func (e *Engine) Stats() models.CacheStats {
	s := e.stats.snapshot()
	s.SemanticEnabled = e.cfg.SemanticEnabled
	s.SimilarityThreshold = e.cfg.SimilarityThreshold
	return s
}

// AddSavings records the cost avoided by a cache hit and the embedding cost
// incurred evaluating it
func (e *Engine) AddSavings(costSaved, embeddingCost float64) {
	e.stats.addSavings(costSaved, embeddingCost)
}

// Close releases the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}

func secondsToTTL(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isZeroVector(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// statsTracker accumulates hit/miss counters and savings behind one mutex
// so snapshots are internally consistent.
type statsTracker struct {
	mu            sync.Mutex
	exactHits     int64
	semanticHits  int64
	misses        int64
	costSaved     float64
	embeddingCost float64
}

func (t *statsTracker) recordHit(tier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tier == models.CacheTierSemantic {
		t.semanticHits++
	} else {
		t.exactHits++
	}
}

func (t *statsTracker) recordMiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.misses++
}

func (t *statsTracker) addSavings(costSaved, embeddingCost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.costSaved += costSaved
	t.embeddingCost += embeddingCost
}

func (t *statsTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exactHits, t.semanticHits, t.misses = 0, 0, 0
	t.costSaved, t.embeddingCost = 0, 0
}

func (t *statsTracker) snapshot() models.CacheStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.exactHits + t.semanticHits + t.misses
	s := models.CacheStats{
		ExactHits:     t.exactHits,
		SemanticHits:  t.semanticHits,
		Misses:        t.misses,
		TotalRequests: total,
		CostSaved:     t.costSaved,
		EmbeddingCost: t.embeddingCost,
		NetSavings:    t.costSaved - t.embeddingCost,
	}
	if total > 0 {
		s.HitRate = float64(t.exactHits+t.semanticHits) / float64(total)
	}
	return s
}
