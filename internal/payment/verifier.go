package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Verdict is the facilitator's answer for one claim.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Verifier checks a claim against an expected amount and merchant. A returned
// error means the check could not be performed; a false Verdict means it was
// performed and denied.
type Verifier interface {
	Verify(ctx context.Context, claim Claim, expectedAmountMicro int64, merchantAddress string) (Verdict, error)
}

// FacilitatorConfig configures the HTTP facilitator client.
type FacilitatorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FacilitatorClient verifies claims against the remote x402 facilitator.
type FacilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Verifier = (*FacilitatorClient)(nil)

// NewFacilitatorClient creates a facilitator client.
func NewFacilitatorClient(cfg FacilitatorConfig) (*FacilitatorClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("facilitator URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &FacilitatorClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the facilitator endpoint, for inclusion in 402 descriptors.
func (c *FacilitatorClient) BaseURL() string { return c.baseURL }

// Verify posts the claim to the facilitator's /verify endpoint.
func (c *FacilitatorClient) Verify(ctx context.Context, claim Claim, expectedAmountMicro int64, merchantAddress string) (Verdict, error) {
	payload := struct {
		SignatureToken  string `json:"signature_token"`
		Payer           string `json:"payer"`
		AmountMicro     int64  `json:"amount_micro"`
		ExpectedMicro   int64  `json:"expected_amount_micro"`
		MerchantAddress string `json:"merchant_address"`
	}{
		SignatureToken:  claim.SignatureToken,
		Payer:           claim.Payer,
		AmountMicro:     claim.AmountMicro,
		ExpectedMicro:   expectedAmountMicro,
		MerchantAddress: merchantAddress,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrVerifierUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: read response: %v", ErrVerifierUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("%w: status %d: %s", ErrVerifierUnreachable, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var verdict Verdict
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("%w: decode response: %v", ErrVerifierUnreachable, err)
	}
	return verdict, nil
}
