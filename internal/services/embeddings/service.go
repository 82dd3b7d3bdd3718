package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service wraps a Provider with retries, input normalization and batch
// handling. A nil or failing provider never propagates an error to batch
// callers: failed items come back as zero vectors so a degraded embedding
// backend cannot take the cache down with it.
type Service struct {
	provider   Provider
	maxRetries int
	baseDelay  time.Duration
}

// NewService creates an embedding service around the given provider
func NewService(provider Provider, cfg models.EmbeddingsConfig) *Service {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = time.Duration(models.DefaultRetryBaseDelayMs) * time.Millisecond
	}

	return &Service{
		provider:   provider,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Dimension returns the provider's embedding dimension
func (s *Service) Dimension() int {
	return s.provider.Dimension()
}

// ZeroVector returns an all-zero vector matching the provider dimension
func (s *Service) ZeroVector() []float64 {
	return make([]float64, s.provider.Dimension())
}

// Embed generates an embedding for the given text with retry on transient
// failures. Empty or whitespace-only input short-circuits to a zero vector
// without calling the provider.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return s.ZeroVector(), nil
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay << (attempt - 1)
			fiberlog.Warnf("Embeddings: attempt %d/%d failed (%v), retrying in %v",
				attempt, s.maxRetries, lastErr, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vec, err := s.provider.Embed(ctx, text)
		if err == nil {
			if want := s.provider.Dimension(); want > 0 && len(vec) != want {
				return nil, &models.DimensionMismatchError{Want: want, Got: len(vec)}
			}
			return vec, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingFailure, lastErr)
}

// EmbedBatch embeds each text independently. Items that fail after retries
// are returned as zero vectors; the batch itself never fails.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) [][]float64 {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			fiberlog.Warnf("Embeddings: batch item %d failed, substituting zero vector: %v", i, err)
			vec = s.ZeroVector()
		}
		vectors[i] = vec
	}
	return vectors
}

// Model returns the underlying provider's model identifier
func (s *Service) Model() string {
	return s.provider.Model()
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.provider.Close()
}
