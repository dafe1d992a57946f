// Package pricing computes pay-per-call quotes for gated services.
//
// Prices are fixed-point micro-units (1_000_000 micro = 1 unit of the
// settlement currency). Tier multipliers are integer percents so a quote is
// derived with one multiplication and one half-up rounding, never from a
// previously rounded price.
package pricing

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
)

// MicroPerUnit is the fixed-point scale of all prices.
const MicroPerUnit = 1_000_000

// DefaultServiceID is the base-price fallback for unknown services.
const DefaultServiceID = "default"

// Well-known gated services.
const (
	ServiceScoreCheck = "ghost-score-check"
	ServiceCredential = "credential-issuance"
	ServiceReport     = "agent-report"
)

// defaultBasePrices is the built-in per-service price table, in micro-units.
var defaultBasePrices = map[string]int64{
	ServiceScoreCheck: 10_000, // 0.01
	ServiceCredential: 50_000, // 0.05
	ServiceReport:     25_000, // 0.025
	DefaultServiceID:  10_000,
}

// tierMultipliers are integer percents. Higher tiers pay more: the service
// models premium API access, not risk-based discounting.
var tierMultipliers = map[agent.Tier]int64{
	agent.TierPlatinum: 200,
	agent.TierGold:     150,
	agent.TierSilver:   120,
	agent.TierBronze:   100,
	agent.TierNewcomer: 80,
}

// Quote is an ephemeral price for one request-response pair.
type Quote struct {
	ID         string     `json:"id"`
	ServiceID  string     `json:"service_id"`
	Tier       agent.Tier `json:"tier"`
	UnitPrice  int64      `json:"unit_price_micro"`
	ComputedAt time.Time  `json:"computed_at"`
}

// Engine prices services by tier.
type Engine struct {
	base map[string]int64
	now  func() time.Time
}

// New creates an engine. Entries in overrides replace or extend the built-in
// base-price table; a nil clock selects time.Now.
func New(overrides map[string]int64, now func() time.Time) *Engine {
	base := make(map[string]int64, len(defaultBasePrices)+len(overrides))
	for id, price := range defaultBasePrices {
		base[id] = price
	}
	for id, price := range overrides {
		if price > 0 {
			base[id] = price
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{base: base, now: now}
}

// Price returns the unit price for one call to the service at the tier, in
// micro-units. Unknown services fall back to the default base price; unknown
// tiers price as NEWCOMER.
func (e *Engine) Price(serviceID string, tier agent.Tier) int64 {
	base, ok := e.base[serviceID]
	if !ok {
		base = e.base[DefaultServiceID]
	}
	pct, ok := tierMultipliers[tier]
	if !ok {
		pct = tierMultipliers[agent.TierNewcomer]
	}
	return (base*pct + 50) / 100
}

// QuoteFor builds a full quote for the service at the tier.
func (e *Engine) QuoteFor(serviceID string, tier agent.Tier) Quote {
	return Quote{
		ID:         uuid.New().String(),
		ServiceID:  serviceID,
		Tier:       tier,
		UnitPrice:  e.Price(serviceID, tier),
		ComputedAt: e.now().UTC(),
	}
}
