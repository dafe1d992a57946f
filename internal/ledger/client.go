// Package ledger provides read access to the GhostSpeak agent registry over
// JSON-RPC.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
)

// Reader fetches a single agent record by address. It is the gateway's only
// I/O boundary toward the ledger and performs no caching of its own.
type Reader interface {
	FetchAgent(ctx context.Context, address string) (agent.Record, error)
}

// Config holds client configuration.
type Config struct {
	RPCURL  string
	Timeout time.Duration
}

// Client is the JSON-RPC implementation of Reader.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

var _ Reader = (*Client)(nil)

// NewClient creates a registry client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		rpcURL: cfg.RPCURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// registry error code for an unknown agent address
const codeAgentNotFound = -32004

// Call makes a raw RPC call to the registry node.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", agent.ErrFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", agent.ErrFetchFailed, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", agent.ErrFetchFailed, err)
	}

	if rpcResp.Error != nil {
		if rpcResp.Error.Code == codeAgentNotFound {
			return nil, agent.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", agent.ErrFetchFailed, rpcResp.Error)
	}

	return rpcResp.Result, nil
}

// FetchAgent returns the current on-chain record for the address.
func (c *Client) FetchAgent(ctx context.Context, address string) (agent.Record, error) {
	if !agent.ValidAddress(address) {
		return agent.Record{}, fmt.Errorf("%w: %q", agent.ErrInvalidAddress, address)
	}

	result, err := c.Call(ctx, "ghost_getAgent", []interface{}{address})
	if err != nil {
		return agent.Record{}, err
	}
	if len(result) == 0 || string(result) == "null" {
		return agent.Record{}, agent.ErrNotFound
	}

	return parseRecord(address, result), nil
}

// parseRecord maps a registry result onto a Record, defaulting every missing
// field to zero/false. Negative counters are clamped to zero here so nothing
// downstream has to re-validate.
func parseRecord(address string, raw json.RawMessage) agent.Record {
	doc := gjson.ParseBytes(raw)

	rec := agent.Record{
		Address:       address,
		Name:          doc.Get("name").String(),
		Active:        doc.Get("isActive").Bool(),
		Reputation:    nonNegative(doc.Get("reputationScore").Int()),
		GhostScore:    nonNegative(doc.Get("ghostScore").Int()),
		JobsCompleted: nonNegative(doc.Get("totalJobsCompleted").Int()),
		X402Enabled:   doc.Get("x402Enabled").Bool(),
	}
	if failed := doc.Get("totalJobsFailed"); failed.Exists() {
		rec.JobsFailed = nonNegative(failed.Int())
		rec.FailuresKnown = true
	}
	if created := doc.Get("createdAt").Int(); created > 0 {
		rec.CreatedAt = time.Unix(created, 0).UTC()
	}
	return rec
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
		return fmt.Errorf("%w: %v", agent.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", agent.ErrFetchFailed, err)
}

func isClientTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}
