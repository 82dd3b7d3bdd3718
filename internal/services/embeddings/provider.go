// Package embeddings turns prompt text into fixed-dimension vectors for the
// semantic cache tier. The provider is an external capability; the Service
// wrapper adds retries, empty-input short-circuiting, and batch semantics.
package embeddings

import "context"

// Provider defines the interface all embedding backends must satisfy
type Provider interface {
	// Embed turns a piece of text into its embedding vector
	Embed(ctx context.Context, text string) ([]float64, error)
	// Dimension returns the fixed vector length this provider produces
	Dimension() int
	// Model returns the embedding model identifier
	Model() string
	// Close frees any resources held by the provider
	Close() error
}
