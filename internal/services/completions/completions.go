// Package completions orchestrates one gateway request: cache lookup,
// provider invocation on a miss, cost accounting and usage recording.
package completions

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"
	"github.com/fluxai/flux-gateway/internal/services/cache"
	"github.com/fluxai/flux-gateway/internal/services/cost"
	"github.com/fluxai/flux-gateway/internal/services/tokenizer"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// InferenceProvider produces a completion for a prompt. The gateway treats
// it as opaque: any model backend satisfying this interface can sit behind
// the cache.
type InferenceProvider interface {
	Complete(ctx context.Context, req models.CompletionRequest) (*models.ChatResponse, error)
}

// UsageRecorder receives accounting rows from the pipeline. The usual
// implementation is usage.Worker, which persists them off the hot path.
type UsageRecorder interface {
	Submit(params models.RecordUsageParams)
}

// Service runs the request pipeline. The recorder is optional; without it
// accounting rows are simply not persisted.
type Service struct {
	engine     *cache.Engine
	provider   InferenceProvider
	accountant *cost.Accountant
	estimator  *tokenizer.Estimator
	recorder   UsageRecorder
}

// NewService wires the completion pipeline
func NewService(engine *cache.Engine, provider InferenceProvider, accountant *cost.Accountant, estimator *tokenizer.Estimator, recorder UsageRecorder) *Service {
	return &Service{
		engine:     engine,
		provider:   provider,
		accountant: accountant,
		estimator:  estimator,
		recorder:   recorder,
	}
}

// Complete serves a completion request, from cache when possible and from
// the inference provider otherwise
func (s *Service) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("completion request has no prompt")
	}
	if req.Model == "" {
		return nil, fmt.Errorf("completion request has no model")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	start := time.Now()

	if match, ok := s.engine.Lookup(ctx, req.Prompt, req.Model); ok {
		return s.serveHit(ctx, req, match, start)
	}
	return s.serveMiss(ctx, req, start)
}

func (s *Service) serveHit(ctx context.Context, req models.CompletionRequest, match *models.CacheMatch, start time.Time) (*models.CompletionResult, error) {
	// exact hits cost nothing to find; semantic hits paid for one query
	// embedding
	embeddingTokens := 0
	if match.Tier == models.CacheTierSemantic {
		embeddingTokens = s.estimator.Estimate(req.Prompt)
	}

	savings, err := s.accountant.CacheSavings(req.Model, req.Region, match.Response.Usage, embeddingTokens)
	if err != nil {
		fiberlog.Warnf("Completions: savings calculation failed for %s: %v", req.Model, err)
		savings = models.CostSavings{RequestsSaved: 1, TokensSaved: match.Response.Usage.Total()}
	}
	s.engine.AddSavings(savings.CostSaved, savings.EmbeddingCost)

	latency := time.Since(start).Milliseconds()
	s.recordUsage(models.RecordUsageParams{
		RequestID:    req.RequestID,
		AccountID:    req.AccountID,
		Model:        req.Model,
		Region:       req.Region,
		TokensInput:  match.Response.Usage.InputTokens,
		TokensOutput: match.Response.Usage.OutputTokens,
		CacheTier:    match.Tier,
		Similarity:   match.Similarity,
		CostSaved:    savings.CostSaved,
		LatencyMs:    int(latency),
	})

	fiberlog.Debugf("Completions: %s hit for request %s (model %s)", match.Tier, req.RequestID, req.Model)
	resp := match.Response
	return &models.CompletionResult{
		Response:   &resp,
		RequestID:  req.RequestID,
		CacheTier:  match.Tier,
		Similarity: match.Similarity,
		Savings:    &savings,
		LatencyMs:  latency,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (s *Service) serveMiss(ctx context.Context, req models.CompletionRequest, start time.Time) (*models.CompletionResult, error) {
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		s.recordUsage(models.RecordUsageParams{
			RequestID:    req.RequestID,
			AccountID:    req.AccountID,
			Model:        req.Model,
			Region:       req.Region,
			LatencyMs:    int(time.Since(start).Milliseconds()),
			ErrorMessage: err.Error(),
		})
		return nil, fmt.Errorf("inference provider: %w", err)
	}

	// some providers do not report token usage; estimate it so cost
	// accounting stays populated
	if resp.Usage.Total() == 0 {
		resp.Usage = models.TokenUsage{
			InputTokens:  s.estimator.Estimate(req.Prompt),
			OutputTokens: s.estimator.Estimate(resp.Content),
		}
	}

	breakdown, err := s.accountant.CalculateCost(req.Model, req.Region, resp.Usage)
	if err != nil {
		fiberlog.Warnf("Completions: cost calculation failed for %s: %v", req.Model, err)
	}

	s.engine.Store(ctx, req.Prompt, req.Model, *resp)

	latency := time.Since(start).Milliseconds()
	s.recordUsage(models.RecordUsageParams{
		RequestID:    req.RequestID,
		AccountID:    req.AccountID,
		Model:        req.Model,
		Region:       req.Region,
		TokensInput:  resp.Usage.InputTokens,
		TokensOutput: resp.Usage.OutputTokens,
		Cost:         breakdown.TotalCost,
		LatencyMs:    int(latency),
	})

	result := &models.CompletionResult{
		Response:  resp,
		RequestID: req.RequestID,
		LatencyMs: latency,
		CreatedAt: time.Now().UTC(),
	}
	if breakdown.TotalCost > 0 || err == nil {
		result.Cost = &breakdown
	}
	return result, nil
}

func (s *Service) recordUsage(params models.RecordUsageParams) {
	if s.recorder == nil {
		return
	}
	s.recorder.Submit(params)
}
