package models

// EmbeddingsConfig holds configuration for the embedding provider adapter
type EmbeddingsConfig struct {
	Provider         string `json:"provider,omitzero" yaml:"provider"` // currently "openai"
	APIKey           string `json:"api_key,omitzero" yaml:"api_key"`
	BaseURL          string `json:"base_url,omitzero" yaml:"base_url"`
	Model            string `json:"model,omitzero" yaml:"model"`
	Dimension        int    `json:"dimension,omitzero" yaml:"dimension"`
	MaxRetries       int    `json:"max_retries,omitzero" yaml:"max_retries"`
	RetryBaseDelayMs int    `json:"retry_base_delay_ms,omitzero" yaml:"retry_base_delay_ms"`
}

const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536
	DefaultEmbeddingRetries   = 3
	DefaultRetryBaseDelayMs   = 500
)

// DefaultEmbeddingsConfig returns the embedding adapter defaults
func DefaultEmbeddingsConfig() EmbeddingsConfig {
	return EmbeddingsConfig{
		Provider:         "openai",
		Model:            DefaultEmbeddingModel,
		Dimension:        DefaultEmbeddingDimension,
		MaxRetries:       DefaultEmbeddingRetries,
		RetryBaseDelayMs: DefaultRetryBaseDelayMs,
	}
}
