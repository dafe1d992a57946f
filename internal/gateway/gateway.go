// Package gateway composes the reputation cache, score derivation, pricing
// and payment gate behind the single facade other collaborators call.
package gateway

import (
	"context"
	"fmt"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
	"github.com/ghostspeak/ghostgate/internal/payment"
	"github.com/ghostspeak/ghostgate/internal/pricing"
	"github.com/ghostspeak/ghostgate/internal/reputation"
	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// ScoreView is the read-only reputation answer for one agent.
type ScoreView struct {
	Address     string     `json:"address"`
	Score       int64      `json:"score"`
	Tier        agent.Tier `json:"tier"`
	TotalJobs   int64      `json:"total_jobs"`
	SuccessRate int64      `json:"success_rate"`
	IsActive    bool       `json:"is_active"`
}

// PaidServiceResult is the outcome of one paid-service request: either a
// payment descriptor the caller must satisfy, or the executed operation's
// result.
type PaidServiceResult struct {
	Status  payment.Status    `json:"status"`
	Payment *payment.Required `json:"payment,omitempty"`
	Quote   pricing.Quote     `json:"quote"`
	Result  interface{}       `json:"result,omitempty"`
}

// Executor runs a paid operation once its payment has been verified.
type Executor interface {
	Execute(ctx context.Context, serviceID string, rec agent.Record, score agent.ScoreResult) (interface{}, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, serviceID string, rec agent.Record, score agent.ScoreResult) (interface{}, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, serviceID string, rec agent.Record, score agent.ScoreResult) (interface{}, error) {
	return f(ctx, serviceID, rec, score)
}

// Service is the gateway facade.
type Service struct {
	cache    *reputation.Cache
	prices   *pricing.Engine
	gate     *payment.Gate
	executor Executor
	log      *logger.Logger
}

// New constructs the facade. A nil executor selects the built-in score-report
// executor.
func New(cache *reputation.Cache, prices *pricing.Engine, gate *payment.Gate, executor Executor, log *logger.Logger) (*Service, error) {
	if cache == nil || prices == nil || gate == nil {
		return nil, fmt.Errorf("cache, pricing engine and payment gate required")
	}
	if executor == nil {
		executor = scoreReportExecutor{}
	}
	if log == nil {
		log = logger.NewDefault("gateway")
	}
	return &Service{
		cache:    cache,
		prices:   prices,
		gate:     gate,
		executor: executor,
		log:      log,
	}, nil
}

// GetScore returns the derived reputation for the address. Read-only, always
// unauthenticated; served from cache while the record is fresh.
func (s *Service) GetScore(ctx context.Context, address string) (ScoreView, error) {
	rec, err := s.cache.Get(ctx, address)
	if err != nil {
		return ScoreView{}, err
	}

	score := reputation.Compute(rec)
	return ScoreView{
		Address:     rec.Address,
		Score:       score.Score,
		Tier:        score.Tier,
		TotalJobs:   score.TotalJobs,
		SuccessRate: score.SuccessRate,
		IsActive:    rec.Active,
	}, nil
}

// RequestPaidService prices the service against the agent's current tier and
// runs the payment gate. The price is computed once per request from the tier
// snapshot taken here; a retry after a 402 simply recomputes against the then
// current tier.
func (s *Service) RequestPaidService(ctx context.Context, address, serviceID string, claim *payment.Claim) (PaidServiceResult, error) {
	rec, err := s.cache.Get(ctx, address)
	if err != nil {
		return PaidServiceResult{}, err
	}

	score := reputation.Compute(rec)
	quote := s.prices.QuoteFor(serviceID, score.Tier)

	outcome, err := s.gate.Evaluate(ctx, claim, quote)
	if err != nil {
		return PaidServiceResult{Status: outcome.Status, Quote: quote}, err
	}

	if outcome.Status == payment.StatusRequired {
		return PaidServiceResult{
			Status:  outcome.Status,
			Payment: outcome.Required,
			Quote:   quote,
		}, nil
	}

	result, err := s.executor.Execute(ctx, serviceID, rec, score)
	if err != nil {
		return PaidServiceResult{Status: outcome.Status, Quote: quote}, fmt.Errorf("execute %s: %w", serviceID, err)
	}

	s.log.WithField("address", address).
		WithField("service_id", serviceID).
		WithField("quote_id", quote.ID).
		Info("paid service executed")
	return PaidServiceResult{
		Status: outcome.Status,
		Quote:  quote,
		Result: result,
	}, nil
}

// Invalidate drops the cached record for the address. The payment-polling
// companion calls this after observing a settlement so the next read
// refetches.
func (s *Service) Invalidate(address string) {
	s.cache.Invalidate(address)
}

// Close clears the cache on service teardown.
func (s *Service) Close() {
	s.cache.Clear()
}

// scoreReportExecutor is the default paid operation: a detailed reputation
// report assembled from the record already in hand.
type scoreReportExecutor struct{}

func (scoreReportExecutor) Execute(_ context.Context, serviceID string, rec agent.Record, score agent.ScoreResult) (interface{}, error) {
	return map[string]interface{}{
		"service_id":   serviceID,
		"address":      rec.Address,
		"name":         rec.Name,
		"score":        score.Score,
		"tier":         score.Tier,
		"total_jobs":   score.TotalJobs,
		"success_rate": score.SuccessRate,
		"x402_enabled": rec.X402Enabled,
		"created_at":   rec.CreatedAt,
	}, nil
}
