package models

import "time"

// TokenUsage holds the token counts reported by the inference provider
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined input and output token count
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ChatResponse is the response artifact returned by the inference provider
// and stored by the cache. It is immutable once stored.
type ChatResponse struct {
	Model   string     `json:"model"`
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// CompletionRequest represents an inbound chat-completion request as seen by
// the gateway core. Transport-level fields (headers, auth) are resolved by
// the caller before this struct is built.
type CompletionRequest struct {
	RequestID string `json:"request_id,omitzero"`
	AccountID string `json:"account_id,omitzero"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
	Region    string `json:"region,omitzero"`
}

// CompletionResult is the outcome of a gateway completion: the response plus
// cache and cost metadata for the reporting layer.
type CompletionResult struct {
	Response   *ChatResponse  `json:"response"`
	RequestID  string         `json:"request_id"`
	CacheTier  string         `json:"cache_tier,omitzero"` // "exact", "semantic", or empty on a miss
	Similarity float64        `json:"similarity,omitzero"` // set only for semantic hits
	Cost       *CostBreakdown `json:"cost,omitempty"`      // set when the provider was invoked
	Savings    *CostSavings   `json:"savings,omitempty"`   // set on cache hits
	LatencyMs  int64          `json:"latency_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}
