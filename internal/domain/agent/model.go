// Package agent defines the on-chain agent records and derived reputation
// values shared across the gateway.
package agent

import (
	"regexp"
	"time"
)

// Record is an immutable snapshot of one agent's on-chain state at fetch
// time. A refresh produces a new Record; existing ones are never mutated.
type Record struct {
	Address       string
	Name          string
	Active        bool
	Reputation    int64 // raw counter, basis points (0-10000)
	GhostScore    int64 // optional pre-computed on-chain score (0-100000)
	JobsCompleted int64
	JobsFailed    int64
	FailuresKnown bool // registry versions prior to v2 do not expose failures
	X402Enabled   bool
	CreatedAt     time.Time
}

// Tier is the discrete reputation band an agent falls into.
type Tier string

const (
	TierNewcomer Tier = "NEWCOMER"
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// ScoreResult is the derived reputation view of a Record. It is recomputed on
// every read and never persisted.
type ScoreResult struct {
	Score       int64 `json:"score"`
	Tier        Tier  `json:"tier"`
	TotalJobs   int64 `json:"total_jobs"`
	SuccessRate int64 `json:"success_rate"`
}

var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidAddress reports whether s looks like a registry address. The check is
// purely syntactic; existence is established by the ledger.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}
