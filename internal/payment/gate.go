package payment

import (
	"context"
	"fmt"

	"github.com/ghostspeak/ghostgate/internal/metrics"
	"github.com/ghostspeak/ghostgate/internal/pricing"
	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// GateConfig holds the merchant identity advertised in 402 descriptors.
type GateConfig struct {
	MerchantAddress string
	FacilitatorURL  string
	Scheme          string // defaults to "exact"
	Network         string // defaults to "ghostspeak"
}

// Gate decides per request whether a paid operation may proceed. It keeps no
// state between requests and never retries the verifier.
type Gate struct {
	verifier Verifier
	cfg      GateConfig
	log      *logger.Logger
}

// NewGate creates a payment gate.
func NewGate(verifier Verifier, cfg GateConfig, log *logger.Logger) (*Gate, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier required")
	}
	if cfg.MerchantAddress == "" {
		return nil, fmt.Errorf("merchant address required")
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "exact"
	}
	if cfg.Network == "" {
		cfg.Network = "ghostspeak"
	}
	if log == nil {
		log = logger.NewDefault("payment-gate")
	}
	return &Gate{verifier: verifier, cfg: cfg, log: log}, nil
}

// Evaluate runs the per-request state machine against the quote.
//
// No claim yields StatusRequired with a descriptor and a nil error. A claim
// is sent to the verifier exactly once: a denial yields StatusRejected with
// an error wrapping ErrPaymentRejected, while a verifier that cannot be
// reached surfaces as ErrVerifierUnreachable so callers can distinguish
// transient failures from cryptographic denials.
func (g *Gate) Evaluate(ctx context.Context, claim *Claim, quote pricing.Quote) (Outcome, error) {
	if claim == nil {
		metrics.RecordPaymentVerdict("required")
		return Outcome{
			Status: StatusRequired,
			Required: &Required{
				ServiceID:       quote.ServiceID,
				Tier:            quote.Tier,
				UnitPriceMicro:  quote.UnitPrice,
				MerchantAddress: g.cfg.MerchantAddress,
				FacilitatorURL:  g.cfg.FacilitatorURL,
				Scheme:          g.cfg.Scheme,
				Network:         g.cfg.Network,
			},
		}, nil
	}

	verdict, err := g.verifier.Verify(ctx, *claim, quote.UnitPrice, g.cfg.MerchantAddress)
	if err != nil {
		metrics.RecordPaymentVerdict("unreachable")
		g.log.WithError(err).
			WithField("service_id", quote.ServiceID).
			Warn("payment verification unavailable")
		return Outcome{}, err
	}

	if !verdict.Valid {
		metrics.RecordPaymentVerdict("rejected")
		g.log.WithField("service_id", quote.ServiceID).
			WithField("payer", claim.Payer).
			WithField("reason", verdict.Reason).
			Info("payment claim rejected")
		return Outcome{Status: StatusRejected, Reason: verdict.Reason},
			fmt.Errorf("%w: %s", ErrPaymentRejected, verdict.Reason)
	}

	metrics.RecordPaymentVerdict("verified")
	g.log.WithField("service_id", quote.ServiceID).
		WithField("payer", claim.Payer).
		WithField("amount_micro", quote.UnitPrice).
		Info("payment verified")
	return Outcome{Status: StatusVerified}, nil
}
