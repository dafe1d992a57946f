package reputation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
	"github.com/ghostspeak/ghostgate/internal/ledger"
	"github.com/ghostspeak/ghostgate/internal/metrics"
	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// DefaultTTL bounds how stale a served record can be.
const DefaultTTL = 60 * time.Second

// Clock supplies the current time; injected so tests control expiry.
type Clock func() time.Time

type entry struct {
	record    agent.Record
	expiresAt time.Time
}

// Cache is a read-through TTL cache over a ledger.Reader. It is the single
// authority for record freshness: an expired entry is never served, even when
// the refetch that replaces it fails.
//
// Concurrent misses for the same address may each fetch upstream; the last
// writer wins and stores a complete entry.
type Cache struct {
	reader ledger.Reader
	ttl    time.Duration
	now    Clock
	log    *logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache creates a cache over the reader. A zero ttl selects DefaultTTL and
// a nil clock selects time.Now.
func NewCache(reader ledger.Reader, ttl time.Duration, now Clock, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewDefault("reputation-cache")
	}
	return &Cache{
		reader:  reader,
		ttl:     ttl,
		now:     now,
		log:     log,
		entries: make(map[string]entry),
	}
}

// Get returns the cached record for the address while it is fresh, otherwise
// fetches a new one and stores it with expiry fetchTime + TTL. Reader errors
// propagate unwrapped; the cache neither retries nor suppresses them.
func (c *Cache) Get(ctx context.Context, address string) (agent.Record, error) {
	if !agent.ValidAddress(address) {
		return agent.Record{}, fmt.Errorf("%w: %q", agent.ErrInvalidAddress, address)
	}

	c.mu.RLock()
	e, ok := c.entries[address]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		metrics.RecordCacheLookup("hit")
		return e.record, nil
	}

	start := time.Now()
	record, err := c.reader.FetchAgent(ctx, address)
	if err != nil {
		metrics.RecordCacheLookup("error")
		return agent.Record{}, err
	}
	metrics.RecordCacheLookup("miss")
	metrics.RecordLedgerFetch(time.Since(start))

	c.mu.Lock()
	c.entries[address] = entry{record: record, expiresAt: c.now().Add(c.ttl)}
	size := len(c.entries)
	c.mu.Unlock()
	metrics.SetCacheEntries(size)

	c.log.WithField("address", address).Debug("agent record refreshed")
	return record, nil
}

// Invalidate removes the entry regardless of expiry; the next Get is a forced
// miss.
func (c *Cache) Invalidate(address string) {
	c.mu.Lock()
	delete(c.entries, address)
	size := len(c.entries)
	c.mu.Unlock()
	metrics.SetCacheEntries(size)
}

// Clear removes all entries. Used on service teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	metrics.SetCacheEntries(0)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// removeExpired drops entries whose expiry has passed and reports how many
// were removed.
func (c *Cache) removeExpired() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for address, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, address)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(size)
	return removed
}
