// Package reputation derives Ghost Scores from on-chain records and keeps a
// TTL-bounded cache of registry lookups.
package reputation

import "github.com/ghostspeak/ghostgate/internal/domain/agent"

// Raw counter scales. Reputation is stored in basis points (10000 = max);
// on-chain ghost-score counters are stored at 100x score resolution.
const (
	reputationDivisor = 10
	ghostScoreDivisor = 100
)

// Tier thresholds are inclusive lower bounds, evaluated highest first.
const (
	platinumFloor = 900
	goldFloor     = 750
	silverFloor   = 500
	bronzeFloor   = 200
)

// Compute derives the score, tier and success rate for a record. It is pure
// and total: a zero record yields score 0, tier NEWCOMER.
//
// When a record carries a pre-computed on-chain ghost-score counter that
// counter is authoritative and the basis-point reputation counter is ignored;
// records without one fall back to the reputation counter.
func Compute(rec agent.Record) agent.ScoreResult {
	score := scaled(rec.Reputation, reputationDivisor)
	if rec.GhostScore > 0 {
		score = scaled(rec.GhostScore, ghostScoreDivisor)
	}

	return agent.ScoreResult{
		Score:       score,
		Tier:        TierFor(score),
		TotalJobs:   nonNegative(rec.JobsCompleted),
		SuccessRate: successRate(rec),
	}
}

// TierFor maps a 0-1000 score onto its tier band.
func TierFor(score int64) agent.Tier {
	switch {
	case score >= platinumFloor:
		return agent.TierPlatinum
	case score >= goldFloor:
		return agent.TierGold
	case score >= silverFloor:
		return agent.TierSilver
	case score >= bronzeFloor:
		return agent.TierBronze
	default:
		return agent.TierNewcomer
	}
}

// scaled divides a raw counter by its scale with half-up rounding and clamps
// the result onto [0, 1000]. The cap is applied to raw before rounding so a
// counter near math.MaxInt64 cannot overflow the half-up add.
func scaled(raw, divisor int64) int64 {
	if raw < 0 {
		return 0
	}
	if raw >= 1000*divisor {
		return 1000
	}
	return (raw + divisor/2) / divisor
}

// successRate is a percentage in [0, 100]. The registry did not expose
// failure counts before v2, so records without one report 100 for any agent
// that has completed at least one job.
func successRate(rec agent.Record) int64 {
	completed := nonNegative(rec.JobsCompleted)
	if completed == 0 {
		return 0
	}
	if !rec.FailuresKnown {
		return 100
	}

	failed := nonNegative(rec.JobsFailed)
	if failed >= completed {
		return 0
	}
	rate := (100*(completed-failed) + completed/2) / completed
	if rate > 100 {
		return 100
	}
	return rate
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
