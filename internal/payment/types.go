// Package payment implements the x402 pay-per-call gate: it issues payment
// descriptors for unpaid requests and checks supplied claims against an
// external facilitator before a paid operation may run.
package payment

import (
	"errors"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
)

// Claim is a caller-supplied proof of payment. The gate treats it as
// untrusted input; validity is established only by the facilitator.
type Claim struct {
	SignatureToken string `json:"signature_token"`
	Payer          string `json:"payer"`
	AmountMicro    int64  `json:"amount_micro"`
}

// Required is the 402 payment descriptor returned when a request carries no
// claim. It is a normal terminal outcome, not an error: the caller retries
// with payment attached.
type Required struct {
	ServiceID       string     `json:"service_id"`
	Tier            agent.Tier `json:"tier"`
	UnitPriceMicro  int64      `json:"unit_price_micro"`
	MerchantAddress string     `json:"merchant_address"`
	FacilitatorURL  string     `json:"facilitator_url"`
	Scheme          string     `json:"scheme"`
	Network         string     `json:"network"`
}

// Status is the terminal state of one gate evaluation.
type Status string

const (
	StatusRequired Status = "payment_required"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Outcome is the result of one gate evaluation. Exactly one of the terminal
// states applies per request; nothing is persisted across requests.
type Outcome struct {
	Status   Status
	Required *Required // set when Status is StatusRequired
	Reason   string    // set when Status is StatusRejected
}

var (
	// ErrPaymentRejected means the facilitator denied the claim. Terminal for
	// that claim: callers must not retry it.
	ErrPaymentRejected = errors.New("payment rejected")

	// ErrVerifierUnreachable means the facilitator could not be reached.
	// Transient: callers may retry the same claim.
	ErrVerifierUnreachable = errors.New("payment verifier unreachable")
)
