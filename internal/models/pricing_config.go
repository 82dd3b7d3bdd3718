package models

// PricingConfig holds the cost-accounting configuration. Overrides replace
// or extend the built-in pricing table; the default model's pricing is used
// when a requested model has no row.
type PricingConfig struct {
	Region         string                  `json:"region,omitzero" yaml:"region"`
	DefaultModel   string                  `json:"default_model,omitzero" yaml:"default_model"`
	EmbeddingModel string                  `json:"embedding_model,omitzero" yaml:"embedding_model"`
	Overrides      map[string]ModelPricing `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

const (
	DefaultPricingRegion       = "us-east-1"
	DefaultFallbackModel       = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	DefaultEmbeddingCostModel  = "amazon.titan-embed-text-v1"
	DefaultPricingCurrencyCode = "USD"
)

// DefaultPricingConfig returns the cost-accounting defaults
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Region:         DefaultPricingRegion,
		DefaultModel:   DefaultFallbackModel,
		EmbeddingModel: DefaultEmbeddingCostModel,
	}
}
