// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
	"github.com/ghostspeak/ghostgate/internal/payment"
)

// MockReader is a test implementation of the ledger Reader interface.
type MockReader struct {
	mu      sync.RWMutex
	records map[string]agent.Record
	err     error
	fetches int
}

// NewMockReader creates a mock reader seeded with the given records.
func NewMockReader(records ...agent.Record) *MockReader {
	m := &MockReader{records: make(map[string]agent.Record)}
	for _, rec := range records {
		m.records[rec.Address] = rec
	}
	return m
}

// SetRecord adds or replaces a record.
func (m *MockReader) SetRecord(rec agent.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Address] = rec
}

// FailWith makes every subsequent fetch return err; nil restores normal
// behavior.
func (m *MockReader) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Fetches reports how many fetches were attempted.
func (m *MockReader) Fetches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetches
}

// FetchAgent returns the seeded record for the address.
func (m *MockReader) FetchAgent(_ context.Context, address string) (agent.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.err != nil {
		return agent.Record{}, m.err
	}
	rec, ok := m.records[address]
	if !ok {
		return agent.Record{}, agent.ErrNotFound
	}
	return rec, nil
}

// MockVerifier is a test implementation of the payment Verifier interface.
type MockVerifier struct {
	mu      sync.RWMutex
	verdict payment.Verdict
	err     error
	calls   int
}

// NewMockVerifier creates a verifier that confirms every claim.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{verdict: payment.Verdict{Valid: true}}
}

// Deny makes the verifier reject every claim with the given reason.
func (m *MockVerifier) Deny(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdict = payment.Verdict{Valid: false, Reason: reason}
	m.err = nil
}

// FailWith makes every verification attempt return err.
func (m *MockVerifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many verifications were attempted.
func (m *MockVerifier) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Verify returns the configured verdict.
func (m *MockVerifier) Verify(_ context.Context, _ payment.Claim, _ int64, _ string) (payment.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return payment.Verdict{}, fmt.Errorf("%w: %v", payment.ErrVerifierUnreachable, m.err)
	}
	return m.verdict, nil
}

// ManualClock is a settable clock for deterministic TTL tests.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
