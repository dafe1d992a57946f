package reputation

import (
	"fmt"
	"math"
	"testing"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
)

func TestCompute_TierBoundaries(t *testing.T) {
	cases := []struct {
		reputation int64
		score      int64
		tier       agent.Tier
	}{
		{0, 0, agent.TierNewcomer},
		{1990, 199, agent.TierNewcomer},
		{2000, 200, agent.TierBronze},
		{4990, 499, agent.TierBronze},
		{5000, 500, agent.TierSilver},
		{7490, 749, agent.TierSilver},
		{7500, 750, agent.TierGold},
		{8990, 899, agent.TierGold},
		{9000, 900, agent.TierPlatinum},
		{10000, 1000, agent.TierPlatinum},
	}

	for _, tc := range cases {
		got := Compute(agent.Record{Reputation: tc.reputation})
		if got.Score != tc.score {
			t.Errorf("reputation %d: score = %d, want %d", tc.reputation, got.Score, tc.score)
		}
		if got.Tier != tc.tier {
			t.Errorf("reputation %d: tier = %s, want %s", tc.reputation, got.Tier, tc.tier)
		}
	}
}

func TestCompute_Scenario(t *testing.T) {
	rec := agent.Record{
		Address:       "AgentA11111111111111111111111111",
		Reputation:    7850,
		JobsCompleted: 1247,
		Active:        true,
	}

	got := Compute(rec)
	if got.Score != 785 {
		t.Fatalf("score = %d, want 785", got.Score)
	}
	if got.Tier != agent.TierGold {
		t.Fatalf("tier = %s, want GOLD", got.Tier)
	}
	if got.TotalJobs != 1247 {
		t.Fatalf("total jobs = %d, want 1247", got.TotalJobs)
	}
	if got.SuccessRate != 100 {
		t.Fatalf("success rate = %d, want 100", got.SuccessRate)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	rec := agent.Record{Reputation: 6120, JobsCompleted: 42, GhostScore: 81200}

	first := Compute(rec)
	second := Compute(rec)
	if first != second {
		t.Fatalf("compute not idempotent: %#v vs %#v", first, second)
	}
}

func TestCompute_Monotonic(t *testing.T) {
	prev := Compute(agent.Record{})
	for rep := int64(0); rep <= 10000; rep += 50 {
		got := Compute(agent.Record{Reputation: rep})
		if got.Score < prev.Score {
			t.Fatalf("score decreased at reputation %d: %d < %d", rep, got.Score, prev.Score)
		}
		if tierRank(got.Tier) < tierRank(prev.Tier) {
			t.Fatalf("tier decreased at reputation %d: %s after %s", rep, got.Tier, prev.Tier)
		}
		prev = got
	}
}

func TestCompute_GhostScorePrecedence(t *testing.T) {
	// The on-chain ghost-score counter wins when present.
	got := Compute(agent.Record{Reputation: 1000, GhostScore: 95000})
	if got.Score != 950 || got.Tier != agent.TierPlatinum {
		t.Fatalf("score/tier = %d/%s, want 950/PLATINUM", got.Score, got.Tier)
	}

	got = Compute(agent.Record{Reputation: 1000})
	if got.Score != 100 {
		t.Fatalf("fallback score = %d, want 100", got.Score)
	}
}

func TestCompute_Clamps(t *testing.T) {
	got := Compute(agent.Record{Reputation: -500, JobsCompleted: -3})
	if got.Score != 0 || got.Tier != agent.TierNewcomer || got.TotalJobs != 0 || got.SuccessRate != 0 {
		t.Fatalf("negative inputs not zeroed: %#v", got)
	}

	got = Compute(agent.Record{GhostScore: 9_000_000})
	if got.Score != 1000 {
		t.Fatalf("score = %d, want clamp at 1000", got.Score)
	}

	// Hostile registries can return counters at the int64 ceiling; the half-up
	// rounding must not overflow into a negative score.
	for _, rec := range []agent.Record{
		{Reputation: math.MaxInt64},
		{GhostScore: math.MaxInt64},
		{Reputation: math.MaxInt64, GhostScore: math.MaxInt64},
	} {
		got = Compute(rec)
		if got.Score != 1000 || got.Tier != agent.TierPlatinum {
			t.Fatalf("overflowing counter %#v: score = %d tier = %s, want 1000 PLATINUM", rec, got.Score, got.Tier)
		}
	}
}

func TestCompute_SuccessRate(t *testing.T) {
	cases := []struct {
		name string
		rec  agent.Record
		want int64
	}{
		{"no jobs", agent.Record{}, 0},
		{"jobs without failure counter", agent.Record{JobsCompleted: 10}, 100},
		{"failures known", agent.Record{JobsCompleted: 100, JobsFailed: 25, FailuresKnown: true}, 75},
		{"all failed", agent.Record{JobsCompleted: 5, JobsFailed: 5, FailuresKnown: true}, 0},
		{"more failures than jobs", agent.Record{JobsCompleted: 5, JobsFailed: 9, FailuresKnown: true}, 0},
		{"rounding", agent.Record{JobsCompleted: 3, JobsFailed: 1, FailuresKnown: true}, 67},
	}

	for _, tc := range cases {
		if got := Compute(tc.rec).SuccessRate; got != tc.want {
			t.Errorf("%s: success rate = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func tierRank(tier agent.Tier) int {
	switch tier {
	case agent.TierPlatinum:
		return 4
	case agent.TierGold:
		return 3
	case agent.TierSilver:
		return 2
	case agent.TierBronze:
		return 1
	default:
		return 0
	}
}

func ExampleCompute() {
	rec := agent.Record{Reputation: 7850, JobsCompleted: 1247}
	result := Compute(rec)
	fmt.Println(result.Score, result.Tier, result.SuccessRate)
	// Output:
	// 785 GOLD 100
}
