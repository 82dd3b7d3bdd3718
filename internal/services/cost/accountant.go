// Package cost turns token counts into USD amounts using the pricing table.
package cost

import (
	"math"
	"sort"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/pricing"
)

// Accountant computes request costs, cache savings and model cost
// comparisons from the pricing table
type Accountant struct {
	table *pricing.Table
}

// NewAccountant creates a cost accountant over the given price table
func NewAccountant(table *pricing.Table) *Accountant {
	return &Accountant{table: table}
}

// round6 rounds monetary amounts to 6 decimal places, the precision used
// throughout cost accounting and the usage store
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// CalculateCost prices the given token usage. Unknown models are priced at
// the configured default model so accounting never silently drops a request.
func (a *Accountant) CalculateCost(modelID, region string, usage models.TokenUsage) (models.CostBreakdown, error) {
	price, err := a.table.Resolve(modelID, region)
	if err != nil {
		return models.CostBreakdown{}, err
	}

	inputCost := round6(float64(usage.InputTokens) / 1000 * price.InputPer1K)
	outputCost := round6(float64(usage.OutputTokens) / 1000 * price.OutputPer1K)

	return models.CostBreakdown{
		ModelID:      modelID,
		Region:       price.Region,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    round6(inputCost + outputCost),
		Timestamp:    time.Now().UTC(),
	}, nil
}

// EstimateCost prices a request before it runs, from an estimated input
// token count and an expected output length
func (a *Accountant) EstimateCost(modelID, region string, inputTokens, expectedOutputTokens int) (models.CostBreakdown, error) {
	return a.CalculateCost(modelID, region, models.TokenUsage{
		InputTokens:  inputTokens,
		OutputTokens: expectedOutputTokens,
	})
}

// EmbeddingCost prices one embedding call of the given token count using
// the configured embedding model. Embeddings have no output tokens.
func (a *Accountant) EmbeddingCost(region string, tokens int) float64 {
	price, err := a.table.Lookup(a.table.EmbeddingModel(), region)
	if err != nil {
		return 0
	}
	return round6(float64(tokens) / 1000 * price.InputPer1K)
}

// CacheSavings quantifies what a cache hit avoided: the full cost of the
// cached response minus the embedding spent finding it. NetSavings can be
// negative for very small responses.
func (a *Accountant) CacheSavings(modelID, region string, usage models.TokenUsage, embeddingTokens int) (models.CostSavings, error) {
	avoided, err := a.CalculateCost(modelID, region, usage)
	if err != nil {
		return models.CostSavings{}, err
	}
	embeddingCost := a.EmbeddingCost(region, embeddingTokens)

	return models.CostSavings{
		RequestsSaved: 1,
		CostSaved:     avoided.TotalCost,
		TokensSaved:   usage.Total(),
		EmbeddingCost: embeddingCost,
		NetSavings:    round6(avoided.TotalCost - embeddingCost),
	}, nil
}

// CompareModelCosts prices the same token usage across every model in the
// table, cheapest first
func (a *Accountant) CompareModelCosts(region string, usage models.TokenUsage) []models.CostBreakdown {
	ids := a.table.Models()
	breakdowns := make([]models.CostBreakdown, 0, len(ids))
	for _, id := range ids {
		b, err := a.CalculateCost(id, region, usage)
		if err != nil {
			continue
		}
		breakdowns = append(breakdowns, b)
	}
	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].TotalCost != breakdowns[j].TotalCost {
			return breakdowns[i].TotalCost < breakdowns[j].TotalCost
		}
		return breakdowns[i].ModelID < breakdowns[j].ModelID
	})
	return breakdowns
}

// CheapestModel returns the lowest-cost completion model for the given
// usage, excluding embedding-only models
func (a *Accountant) CheapestModel(region string, usage models.TokenUsage) (models.CostBreakdown, bool) {
	for _, b := range a.CompareModelCosts(region, usage) {
		if b.ModelID == a.table.EmbeddingModel() {
			continue
		}
		return b, true
	}
	return models.CostBreakdown{}, false
}
