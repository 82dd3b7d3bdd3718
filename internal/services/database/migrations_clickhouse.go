package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunClickHouseMigrations creates the usage tables directly instead of going
// through AutoMigrate, which the ClickHouse driver does not handle reliably
// (see https://github.com/go-gorm/gorm/issues/7493).
func RunClickHouseMigrations(db *gorm.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS request_usage (
			id UInt64,
			request_id String,
			account_id String,
			model String,
			region String,
			tokens_input Int32,
			tokens_output Int32,
			tokens_total Int32,
			cost Decimal(12, 6),
			currency String,
			cache_tier String,
			similarity Float64,
			cost_saved Decimal(12, 6),
			latency_ms Int32,
			error_message String,
			created_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (account_id, created_at)`,

		`CREATE INDEX IF NOT EXISTS idx_request_usage_model ON request_usage (model) TYPE minmax GRANULARITY 3`,
		`CREATE INDEX IF NOT EXISTS idx_request_usage_request_id ON request_usage (request_id) TYPE minmax GRANULARITY 3`,
		`CREATE INDEX IF NOT EXISTS idx_request_usage_created_at ON request_usage (created_at) TYPE minmax GRANULARITY 3`,
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
