package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
	"github.com/ghostspeak/ghostgate/internal/gateway"
	"github.com/ghostspeak/ghostgate/internal/payment"
	"github.com/ghostspeak/ghostgate/internal/pricing"
	"github.com/ghostspeak/ghostgate/internal/reputation"
	"github.com/ghostspeak/ghostgate/pkg/logger"
	"github.com/ghostspeak/ghostgate/pkg/testutil"
)

const (
	goldAgent     = "AgentA11111111111111111111111111"
	newcomerAgent = "AgentB11111111111111111111111111"
)

func newTestServer(t *testing.T) (*httptest.Server, *testutil.MockReader, *testutil.MockVerifier) {
	t.Helper()

	log := logger.NewDefault("test")
	log.SetOutput(io.Discard)

	reader := testutil.NewMockReader(
		agent.Record{Address: goldAgent, Reputation: 7850, JobsCompleted: 1247, Active: true},
		agent.Record{Address: newcomerAgent, Reputation: 500, JobsCompleted: 2, Active: true},
	)
	verifier := testutil.NewMockVerifier()

	cache := reputation.NewCache(reader, 60*time.Second, nil, log)
	gate, err := payment.NewGate(verifier, payment.GateConfig{
		MerchantAddress: "Merchant111111111111111111111111",
		FacilitatorURL:  "https://facilitator.test",
	}, log)
	require.NoError(t, err)

	gw, err := gateway.New(cache, pricing.New(nil, nil), gate, nil, log)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(gw, log, Options{PaidRequestsPerSecond: 1000}))
	t.Cleanup(srv.Close)
	return srv, reader, verifier
}

func TestScoreEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/agents/" + goldAgent + "/score")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, int64(785), gjson.GetBytes(body, "score").Int())
	assert.Equal(t, "GOLD", gjson.GetBytes(body, "tier").String())
	assert.Equal(t, int64(1247), gjson.GetBytes(body, "total_jobs").Int())
	assert.Equal(t, int64(100), gjson.GetBytes(body, "success_rate").Int())
	assert.True(t, gjson.GetBytes(body, "is_active").Bool())
}

func TestScoreEndpoint_Errors(t *testing.T) {
	srv, reader, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/agents/AgentC11111111111111111111111111/score")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/agents/bogus/score")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	reader.FailWith(agent.ErrFetchFailed)
	resp, err = http.Get(srv.URL + "/v1/agents/" + newcomerAgent + "/score")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPaidEndpoint_NoClaimReturns402(t *testing.T) {
	srv, _, verifier := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/agents/"+newcomerAgent+"/services/ghost-score-check", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "payment_required", gjson.GetBytes(body, "status").String())
	assert.Equal(t, int64(8000), gjson.GetBytes(body, "payment.unit_price_micro").Int())
	assert.Equal(t, "NEWCOMER", gjson.GetBytes(body, "payment.tier").String())
	assert.NotEmpty(t, gjson.GetBytes(body, "payment.merchant_address").String())
	assert.NotEmpty(t, gjson.GetBytes(body, "payment.facilitator_url").String())
	assert.Equal(t, 0, verifier.Calls())
}

func TestPaidEndpoint_VerifiedClaim(t *testing.T) {
	srv, _, verifier := newTestServer(t)

	payload := `{"claim": {"signature_token": "sig", "payer": "` + goldAgent + `", "amount_micro": 15000}}`
	resp, err := http.Post(srv.URL+"/v1/agents/"+goldAgent+"/services/ghost-score-check", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "verified", gjson.GetBytes(body, "status").String())
	assert.Equal(t, int64(785), gjson.GetBytes(body, "result.score").Int())
	assert.Equal(t, 1, verifier.Calls())
}

func TestPaidEndpoint_RejectedClaim(t *testing.T) {
	srv, _, verifier := newTestServer(t)
	verifier.Deny("signature mismatch")

	payload := `{"claim": {"signature_token": "forged"}}`
	resp, err := http.Post(srv.URL+"/v1/agents/"+goldAgent+"/services/credential-issuance", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "rejected", gjson.GetBytes(body, "status").String())
	assert.Contains(t, gjson.GetBytes(body, "error").String(), "signature mismatch")
}

func TestPaidEndpoint_BadClaimBody(t *testing.T) {
	srv, _, verifier := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/agents/"+goldAgent+"/services/ghost-score-check", "application/json", strings.NewReader(`{"claim": {}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, verifier.Calls())
}

func TestInvalidateEndpoint(t *testing.T) {
	srv, reader, _ := newTestServer(t)

	_, err := http.Get(srv.URL + "/v1/agents/" + goldAgent + "/score")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/agents/"+goldAgent+"/cache", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = http.Get(srv.URL + "/v1/agents/" + goldAgent + "/score")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.Fetches())
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "healthy", gjson.GetBytes(body, "status").String())
}

func TestRateLimit(t *testing.T) {
	log := logger.NewDefault("test")
	log.SetOutput(io.Discard)

	reader := testutil.NewMockReader(agent.Record{Address: goldAgent, Reputation: 7850, Active: true})
	cache := reputation.NewCache(reader, 60*time.Second, nil, log)
	gate, err := payment.NewGate(testutil.NewMockVerifier(), payment.GateConfig{
		MerchantAddress: "Merchant111111111111111111111111",
	}, log)
	require.NoError(t, err)
	gw, err := gateway.New(cache, pricing.New(nil, nil), gate, nil, log)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(gw, log, Options{PaidRequestsPerSecond: 1}))
	defer srv.Close()

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := http.Post(srv.URL+"/v1/agents/"+goldAgent+"/services/ghost-score-check", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "paid endpoint never rate limited")
}
