package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

// BalanceFetcher loads the balances of an address
type BalanceFetcher interface {
	GetBalances(ctx context.Context, address string) ([]models.CoinPrimitive, error)
}

type balanceEntry struct {
	amounts   map[string]decimal.Decimal
	fetchedAt time.Time
}

// retainTTLs is how many ttl periods an entry outlives its fetch before it is evicted
const retainTTLs = 4

// BalanceStore caches balances per chain and address.
// Balance never blocks on the network; use Refresh or EnsureFresh to load entries.
// Entries older than retainTTLs*ttl are evicted by Prune, which Set runs at most once per ttl.
type BalanceStore struct {
	fetchers  map[string]BalanceFetcher
	ttl       time.Duration
	now       func() time.Time
	lastPrune time.Time

	mu      sync.RWMutex
	entries map[string]balanceEntry
}

// NewBalanceStore creates a store with one fetcher per chain id
func NewBalanceStore(fetchers map[string]BalanceFetcher, ttl time.Duration) *BalanceStore {
	return &BalanceStore{
		fetchers: fetchers,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]balanceEntry),
	}
}

func balanceKey(chainID, address string) string {
	return chainID + "/" + address
}

// Balance returns the cached balance in minimal units, zero when unknown
func (s *BalanceStore) Balance(chainID, address, denom string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[balanceKey(chainID, address)]
	if !ok {
		return decimal.Zero
	}
	amount, ok := entry.amounts[denom]
	if !ok {
		return decimal.Zero
	}
	return amount
}

// Set stores balances without fetching them
func (s *BalanceStore) Set(chainID, address string, coins []models.CoinPrimitive) error {
	amounts := make(map[string]decimal.Decimal, len(coins))
	for _, coin := range coins {
		amount, err := decimal.NewFromString(coin.Amount)
		if err != nil {
			return fmt.Errorf("invalid balance of %s: %w", coin.Denom, err)
		}
		amounts[coin.Denom] = amount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastPrune) >= s.ttl {
		s.pruneLocked(now)
	}
	s.entries[balanceKey(chainID, address)] = balanceEntry{amounts: amounts, fetchedAt: now}
	return nil
}

// Prune evicts stale entries and returns how many were removed
func (s *BalanceStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

func (s *BalanceStore) pruneLocked(now time.Time) int {
	s.lastPrune = now
	cutoff := now.Add(-retainTTLs * s.ttl)
	removed := 0
	for key, entry := range s.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(s.entries)).Msg("Pruned stale balances")
	}
	return removed
}

// Len returns the number of cached addresses
func (s *BalanceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Refresh fetches the balances of address on chainID
func (s *BalanceStore) Refresh(ctx context.Context, chainID, address string) error {
	fetcher, ok := s.fetchers[chainID]
	if !ok {
		return fmt.Errorf("no balance fetcher for chain %s", chainID)
	}
	coins, err := fetcher.GetBalances(ctx, address)
	if err != nil {
		return err
	}
	if err := s.Set(chainID, address, coins); err != nil {
		return err
	}
	log.Debug().Str("chain_id", chainID).Str("address", address).Int("denoms", len(coins)).Msg("Balances refreshed")
	return nil
}

// EnsureFresh refreshes the entry when it is missing or older than the ttl
func (s *BalanceStore) EnsureFresh(ctx context.Context, chainID, address string) error {
	s.mu.RLock()
	entry, ok := s.entries[balanceKey(chainID, address)]
	s.mu.RUnlock()
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return nil
	}
	return s.Refresh(ctx, chainID, address)
}
