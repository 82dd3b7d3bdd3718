// Package pricing holds the per-model token price table and regional
// multipliers used by cost accounting.
package pricing

import (
	"fmt"
	"sync"

	"github.com/fluxai/flux-gateway/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const priceTableEffectiveDate = "2025-10-01"

// defaultPrices is the base price table in USD per 1K tokens, priced for
// the us-east-1 reference region. Other regions apply a multiplier.
var defaultPrices = map[string]models.ModelPricing{
	"anthropic.claude-3-5-sonnet-20241022-v2:0": newPrice("anthropic.claude-3-5-sonnet-20241022-v2:0", 0.003, 0.015),
	"anthropic.claude-3-5-haiku-20241022-v1:0":  newPrice("anthropic.claude-3-5-haiku-20241022-v1:0", 0.001, 0.005),
	"anthropic.claude-3-opus-20240229-v1:0":     newPrice("anthropic.claude-3-opus-20240229-v1:0", 0.015, 0.075),
	"meta.llama3-70b-instruct-v1:0":             newPrice("meta.llama3-70b-instruct-v1:0", 0.00265, 0.0035),
	"meta.llama3-8b-instruct-v1:0":              newPrice("meta.llama3-8b-instruct-v1:0", 0.0003, 0.0006),
	"amazon.titan-text-express-v1":              newPrice("amazon.titan-text-express-v1", 0.0002, 0.0006),
	"amazon.titan-text-lite-v1":                 newPrice("amazon.titan-text-lite-v1", 0.00015, 0.0002),
	"mistral.mistral-7b-instruct-v0:2":          newPrice("mistral.mistral-7b-instruct-v0:2", 0.00015, 0.0002),
	"mistral.mixtral-8x7b-instruct-v0:1":        newPrice("mistral.mixtral-8x7b-instruct-v0:1", 0.00045, 0.0007),
	// embedding models are priced on input only
	"amazon.titan-embed-text-v1": newPrice("amazon.titan-embed-text-v1", 0.0001, 0),
}

// regionalMultipliers scale the base price for regions that cost more
var regionalMultipliers = map[string]float64{
	"us-east-1":      1.0,
	"us-west-2":      1.0,
	"eu-west-1":      1.1,
	"eu-central-1":   1.1,
	"ap-northeast-1": 1.15,
	"ap-southeast-1": 1.15,
}

func newPrice(modelID string, inputPer1K, outputPer1K float64) models.ModelPricing {
	return models.ModelPricing{
		ModelID:       modelID,
		Region:        "us-east-1",
		InputPer1K:    inputPer1K,
		OutputPer1K:   outputPer1K,
		EffectiveDate: priceTableEffectiveDate,
	}
}

// Table resolves model prices per region. It starts from the built-in base
// table; configured overrides replace or add base entries.
type Table struct {
	mu     sync.RWMutex
	prices map[string]models.ModelPricing
	cfg    models.PricingConfig
}

// NewTable creates a price table, applying overrides from configuration
func NewTable(cfg models.PricingConfig) *Table {
	prices := make(map[string]models.ModelPricing, len(defaultPrices)+len(cfg.Overrides))
	for id, p := range defaultPrices {
		prices[id] = p
	}
	for id, p := range cfg.Overrides {
		if p.ModelID == "" {
			p.ModelID = id
		}
		if p.EffectiveDate == "" {
			p.EffectiveDate = priceTableEffectiveDate
		}
		prices[id] = p
		fiberlog.Debugf("Pricing: override applied for model %s", id)
	}
	return &Table{prices: prices, cfg: cfg}
}

// Lookup returns the price for a model in a region, with the regional
// multiplier applied. Unknown models return ErrPricingNotFound.
func (t *Table) Lookup(modelID, region string) (models.ModelPricing, error) {
	t.mu.RLock()
	base, ok := t.prices[modelID]
	t.mu.RUnlock()
	if !ok {
		return models.ModelPricing{}, fmt.Errorf("%w: %s", models.ErrPricingNotFound, modelID)
	}

	if region == "" {
		region = t.cfg.Region
	}
	multiplier, ok := regionalMultipliers[region]
	if !ok {
		multiplier = 1.0
	}

	return models.ModelPricing{
		ModelID:       base.ModelID,
		Region:        region,
		InputPer1K:    base.InputPer1K * multiplier,
		OutputPer1K:   base.OutputPer1K * multiplier,
		EffectiveDate: base.EffectiveDate,
	}, nil
}

// Resolve behaves like Lookup but falls back to the configured default
// model when the requested one has no price. The fallback is logged so
// unknown models stay observable.
func (t *Table) Resolve(modelID, region string) (models.ModelPricing, error) {
	price, err := t.Lookup(modelID, region)
	if err == nil {
		return price, nil
	}

	fallback := t.cfg.DefaultModel
	if fallback == "" || fallback == modelID {
		return models.ModelPricing{}, err
	}
	fiberlog.Warnf("Pricing: no price for model %s, falling back to %s", modelID, fallback)
	return t.Lookup(fallback, region)
}

// SetPrice inserts or replaces a model price at runtime
func (t *Table) SetPrice(p models.ModelPricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.EffectiveDate == "" {
		p.EffectiveDate = priceTableEffectiveDate
	}
	t.prices[p.ModelID] = p
}

// Models returns the IDs of every priced model
func (t *Table) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.prices))
	for id := range t.prices {
		ids = append(ids, id)
	}
	return ids
}

// EmbeddingModel returns the configured embedding model ID used to price
// semantic-tier lookups
func (t *Table) EmbeddingModel() string {
	return t.cfg.EmbeddingModel
}
