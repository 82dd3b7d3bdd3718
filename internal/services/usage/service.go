// Package usage persists per-request accounting rows and serves aggregate
// reporting queries.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) AutoMigrate() error {
	return s.db.AutoMigrate(&models.RequestUsage{})
}

// RecordUsage writes one accounting row. TokensTotal and the USD default are
// derived here so callers only supply what they measured.
func (s *Service) RecordUsage(ctx context.Context, params models.RecordUsageParams) (*models.RequestUsage, error) {
	row := models.RequestUsage{
		RequestID:    params.RequestID,
		AccountID:    params.AccountID,
		Model:        params.Model,
		Region:       params.Region,
		TokensInput:  params.TokensInput,
		TokensOutput: params.TokensOutput,
		TokensTotal:  params.TokensInput + params.TokensOutput,
		Cost:         params.Cost,
		Currency:     params.Currency,
		CacheTier:    params.CacheTier,
		Similarity:   params.Similarity,
		CostSaved:    params.CostSaved,
		LatencyMs:    params.LatencyMs,
		ErrorMessage: params.ErrorMessage,
	}

	if row.Currency == "" {
		row.Currency = models.DefaultPricingCurrencyCode
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	return &row, nil
}

// ListUsage returns usage rows for an account, newest first. An empty
// accountID lists across all accounts.
func (s *Service) ListUsage(ctx context.Context, accountID string, limit, offset int) ([]models.RequestUsage, error) {
	var rows []models.RequestUsage

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}

	return rows, nil
}

// GetUsageStats aggregates usage for an account over a time window. Zero
// time bounds mean an unbounded window on that side.
func (s *Service) GetUsageStats(ctx context.Context, accountID string, startDate, endDate time.Time) (*models.UsageStats, error) {
	var stats models.UsageStats

	query := s.db.WithContext(ctx).Model(&models.RequestUsage{})
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if !startDate.IsZero() {
		query = query.Where("created_at >= ?", startDate)
	}
	if !endDate.IsZero() {
		query = query.Where("created_at <= ?", endDate)
	}

	err := query.Select(
		"COUNT(*) as total_requests, " +
			"COALESCE(SUM(cost), 0) as total_cost, " +
			"COALESCE(SUM(tokens_total), 0) as total_tokens, " +
			"COALESCE(SUM(CASE WHEN cache_tier != '' THEN 1 ELSE 0 END), 0) as cache_hits, " +
			"COALESCE(SUM(cost_saved), 0) as cache_savings, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	return &stats, nil
}

// GetUsageByModel aggregates usage per model for an account
func (s *Service) GetUsageByModel(ctx context.Context, accountID string) (map[string]models.UsageStats, error) {
	type modelRow struct {
		Model         string
		TotalRequests int64
		TotalCost     float64
		TotalTokens   int64
		CacheHits     int64
		CacheSavings  float64
		AvgLatencyMs  float64
	}
	var rows []modelRow

	query := s.db.WithContext(ctx).Model(&models.RequestUsage{})
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	err := query.Select(
		"model, " +
			"COUNT(*) as total_requests, " +
			"COALESCE(SUM(cost), 0) as total_cost, " +
			"COALESCE(SUM(tokens_total), 0) as total_tokens, " +
			"COALESCE(SUM(CASE WHEN cache_tier != '' THEN 1 ELSE 0 END), 0) as cache_hits, " +
			"COALESCE(SUM(cost_saved), 0) as cache_savings, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Group("model").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get usage by model: %w", err)
	}

	out := make(map[string]models.UsageStats, len(rows))
	for _, r := range rows {
		out[r.Model] = models.UsageStats{
			TotalRequests: r.TotalRequests,
			TotalCost:     r.TotalCost,
			TotalTokens:   r.TotalTokens,
			CacheHits:     r.CacheHits,
			CacheSavings:  r.CacheSavings,
			AvgLatencyMs:  r.AvgLatencyMs,
		}
	}
	return out, nil
}
