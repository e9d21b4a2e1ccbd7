package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "store").Logger()
}

// PoolFetcher loads the current pools of a chain
type PoolFetcher interface {
	GetPools(ctx context.Context) ([]pools.Pool, error)
}

// PoolStore keeps the latest pool snapshot. Snapshots are replaced, never mutated.
type PoolStore struct {
	fetcher  PoolFetcher
	interval time.Duration

	mu        sync.RWMutex
	snapshot  []pools.Pool
	version   uint64
	updatedAt time.Time
	ready     bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoolStore creates a store. fetcher may be nil when only seeded pools are served;
// seed, when not empty, makes the store ready right away.
func NewPoolStore(fetcher PoolFetcher, interval time.Duration, seed []pools.Pool) *PoolStore {
	s := &PoolStore{
		fetcher:  fetcher,
		interval: interval,
	}
	if len(seed) > 0 {
		s.replace(seed)
	}
	return s
}

// Start refreshes once and then keeps refreshing every interval until ctx is done or Close is called.
// A failed first refresh is logged, not returned, so seeded pools keep being served.
func (s *PoolStore) Start(ctx context.Context) {
	if s.fetcher == nil || s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	if err := s.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("Initial pool refresh failed")
	}
	if s.interval <= 0 {
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Msg("Pool refresh failed, keeping previous snapshot")
				}
			}
		}
	}()
}

// Close stops the background refresh
func (s *PoolStore) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Refresh fetches pools and replaces the snapshot
func (s *PoolStore) Refresh(ctx context.Context) error {
	if s.fetcher == nil {
		return errors.New("pool store has no fetcher")
	}
	start := time.Now()
	fetched, err := s.fetcher.GetPools(ctx)
	if err != nil {
		return err
	}
	version := s.replace(fetched)
	log.Info().
		Int("pools", len(fetched)).
		Uint64("version", version).
		Dur("duration", time.Since(start)).
		Msg("Pool snapshot updated")
	return nil
}

func (s *PoolStore) replace(next []pools.Pool) uint64 {
	snapshot := make([]pools.Pool, len(next))
	copy(snapshot, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.version++
	s.updatedAt = time.Now()
	s.ready = true
	return s.version
}

// Snapshot returns the current pools and their version
func (s *PoolStore) Snapshot() ([]pools.Pool, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.version
}

// Version returns the snapshot version, 0 before the first snapshot
func (s *PoolStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// UpdatedAt returns when the snapshot was last replaced
func (s *PoolStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Ready reports whether a snapshot has been loaded
func (s *PoolStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
