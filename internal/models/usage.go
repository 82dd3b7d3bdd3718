package models

import "time"

// RequestUsage is one row of usage accounting: tokens, cost, and the cache
// outcome for a single gateway request
type RequestUsage struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID    string    `gorm:"not null;size:100;index;default:''" json:"request_id,omitzero"`
	AccountID    string    `gorm:"not null;size:100;index;default:''" json:"account_id,omitzero"`
	Model        string    `gorm:"not null;size:100;default:''" json:"model"`
	Region       string    `gorm:"not null;size:30;default:''" json:"region,omitzero"`
	TokensInput  int       `gorm:"not null;default:0" json:"tokens_input"`
	TokensOutput int       `gorm:"not null;default:0" json:"tokens_output"`
	TokensTotal  int       `gorm:"not null;default:0" json:"tokens_total"`
	Cost         float64   `gorm:"not null;type:decimal(12,6);default:0" json:"cost"`
	Currency     string    `gorm:"not null;size:3;default:'USD'" json:"currency"`
	CacheTier    string    `gorm:"not null;size:20;index;default:''" json:"cache_tier,omitzero"`
	Similarity   float64   `gorm:"not null;default:0" json:"similarity,omitzero"`
	CostSaved    float64   `gorm:"not null;type:decimal(12,6);default:0" json:"cost_saved,omitzero"`
	LatencyMs    int       `gorm:"not null;default:0" json:"latency_ms"`
	ErrorMessage string    `gorm:"not null;type:text;default:''" json:"error_message,omitzero"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (RequestUsage) TableName() string {
	return "request_usage"
}

// RecordUsageParams carries the fields for one usage row
type RecordUsageParams struct {
	RequestID    string
	AccountID    string
	Model        string
	Region       string
	TokensInput  int
	TokensOutput int
	Cost         float64
	Currency     string
	CacheTier    string
	Similarity   float64
	CostSaved    float64
	LatencyMs    int
	ErrorMessage string
}

// UsageStats is an aggregate over usage rows for a reporting window
type UsageStats struct {
	TotalRequests int64   `json:"total_requests"`
	TotalCost     float64 `json:"total_cost"`
	TotalTokens   int64   `json:"total_tokens"`
	CacheHits     int64   `json:"cache_hits"`
	CacheSavings  float64 `json:"cache_savings"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}
