package pricing

import (
	"testing"
	"time"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
)

func TestPrice_Deterministic(t *testing.T) {
	e := New(nil, nil)

	// round(0.01 * 1.5) in micro-units, regardless of call order.
	for i := 0; i < 3; i++ {
		if got := e.Price(ServiceScoreCheck, agent.TierGold); got != 15_000 {
			t.Fatalf("price = %d, want 15000", got)
		}
	}
}

func TestPrice_TierMultipliers(t *testing.T) {
	e := New(nil, nil)

	cases := []struct {
		tier agent.Tier
		want int64
	}{
		{agent.TierPlatinum, 20_000},
		{agent.TierGold, 15_000},
		{agent.TierSilver, 12_000},
		{agent.TierBronze, 10_000},
		{agent.TierNewcomer, 8_000},
	}
	for _, tc := range cases {
		if got := e.Price(ServiceScoreCheck, tc.tier); got != tc.want {
			t.Errorf("%s: price = %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestPrice_UnknownServiceUsesDefault(t *testing.T) {
	e := New(nil, nil)
	if got, want := e.Price("no-such-service", agent.TierBronze), e.Price(DefaultServiceID, agent.TierBronze); got != want {
		t.Fatalf("unknown service price = %d, want default %d", got, want)
	}
}

func TestPrice_UnknownTierPricesAsNewcomer(t *testing.T) {
	e := New(nil, nil)
	if got, want := e.Price(ServiceScoreCheck, agent.Tier("MYSTERY")), e.Price(ServiceScoreCheck, agent.TierNewcomer); got != want {
		t.Fatalf("unknown tier price = %d, want newcomer %d", got, want)
	}
}

func TestPrice_Overrides(t *testing.T) {
	e := New(map[string]int64{
		ServiceCredential: 80_000,
		"custom-audit":    120_000,
		"ignored":         0,
	}, nil)

	if got := e.Price(ServiceCredential, agent.TierBronze); got != 80_000 {
		t.Fatalf("override ignored: %d", got)
	}
	if got := e.Price("custom-audit", agent.TierGold); got != 180_000 {
		t.Fatalf("custom service price = %d, want 180000", got)
	}
	if got := e.Price("ignored", agent.TierBronze); got != 10_000 {
		t.Fatalf("non-positive override should fall back to default: %d", got)
	}
}

func TestPrice_RoundingHalfUp(t *testing.T) {
	e := New(map[string]int64{"odd": 125}, nil)

	// 125 * 0.8 = 100 exactly; 125 * 1.2 = 150 exactly; 33 * 0.8 = 26.4 -> 26.
	if got := e.Price("odd", agent.TierNewcomer); got != 100 {
		t.Fatalf("price = %d, want 100", got)
	}
	e = New(map[string]int64{"odd": 33}, nil)
	if got := e.Price("odd", agent.TierNewcomer); got != 26 {
		t.Fatalf("price = %d, want 26", got)
	}
	// 33 * 1.5 = 49.5 rounds up.
	if got := e.Price("odd", agent.TierGold); got != 50 {
		t.Fatalf("price = %d, want 50", got)
	}
}

func TestQuoteFor(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(nil, func() time.Time { return fixed })

	quote := e.QuoteFor(ServiceScoreCheck, agent.TierNewcomer)
	if quote.ID == "" {
		t.Fatalf("quote id empty")
	}
	if quote.ServiceID != ServiceScoreCheck || quote.Tier != agent.TierNewcomer {
		t.Fatalf("unexpected quote identity: %#v", quote)
	}
	if quote.UnitPrice != 8_000 {
		t.Fatalf("unit price = %d, want 8000 (0.008 units)", quote.UnitPrice)
	}
	if !quote.ComputedAt.Equal(fixed) {
		t.Fatalf("computed at = %v, want %v", quote.ComputedAt, fixed)
	}
}
