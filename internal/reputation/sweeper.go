package reputation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// DefaultSweepInterval is used when no sweep schedule is configured.
const DefaultSweepInterval = "@every 1m"

// Sweeper periodically prunes expired entries from the cache. The read path
// never serves an expired entry regardless; sweeping only keeps the map from
// accumulating dead entries in long-lived processes.
type Sweeper struct {
	cache    *Cache
	log      *logger.Logger
	schedule cron.Schedule

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewSweeper creates a lifecycle-managed cache sweeper. The interval is a
// cron descriptor such as "@every 30s".
func NewSweeper(cache *Cache, interval string, log *logger.Logger) (*Sweeper, error) {
	if interval == "" {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewDefault("cache-sweeper")
	}

	schedule, err := cron.NewParser(cron.Descriptor).Parse(interval)
	if err != nil {
		return nil, fmt.Errorf("parse sweep interval %q: %w", interval, err)
	}

	return &Sweeper{
		cache:    cache,
		log:      log,
		schedule: schedule,
	}, nil
}

func (s *Sweeper) Name() string { return "cache-sweeper" }

// Start launches the sweep loop. Starting a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			now := time.Now()
			timer := time.NewTimer(s.schedule.Next(now).Sub(now))
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if removed := s.cache.removeExpired(); removed > 0 {
					s.log.WithField("removed", removed).Debug("expired cache entries pruned")
				}
			}
		}
	}()

	s.log.Info("cache sweeper started")
	return nil
}

// Stop terminates the sweep loop, waiting for the in-flight tick.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("cache sweeper stopped")
	return nil
}
