package models

import "time"

// ModelPricing holds per-1K-token USD prices for one model in one region
type ModelPricing struct {
	ModelID       string  `json:"model_id" yaml:"model_id"`
	Region        string  `json:"region" yaml:"region"`
	InputPer1K    float64 `json:"input_per_1k" yaml:"input_per_1k"`
	OutputPer1K   float64 `json:"output_per_1k" yaml:"output_per_1k"`
	EffectiveDate string  `json:"effective_date,omitzero" yaml:"effective_date,omitempty"`
}

// CostBreakdown is the per-request cost derived from token counts and the
// pricing table. It is computed, never persisted as-is.
type CostBreakdown struct {
	ModelID      string    `json:"model_id"`
	Region       string    `json:"region"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	InputCost    float64   `json:"input_cost"`
	OutputCost   float64   `json:"output_cost"`
	TotalCost    float64   `json:"total_cost"`
	Timestamp    time.Time `json:"timestamp"`
}

// CostSavings quantifies what a cache hit avoided. NetSavings subtracts the
// cost of the embedding used to find the match and can be negative for very
// small prompts.
type CostSavings struct {
	RequestsSaved int     `json:"requests_saved"`
	CostSaved     float64 `json:"cost_saved"`
	TokensSaved   int     `json:"tokens_saved"`
	EmbeddingCost float64 `json:"embedding_cost"`
	NetSavings    float64 `json:"net_savings"`
}
