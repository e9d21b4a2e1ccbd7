package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

type fakePoolFetcher struct {
	calls atomic.Int32
	err   error
	pools []pools.Pool
}

func (f *fakePoolFetcher) GetPools(ctx context.Context) ([]pools.Pool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

type fakeBalanceFetcher struct {
	calls atomic.Int32
	coins []models.CoinPrimitive
}

func (f *fakeBalanceFetcher) GetBalances(ctx context.Context, address string) ([]models.CoinPrimitive, error) {
	f.calls.Add(1)
	return f.coins, nil
}

func testPool(t *testing.T, id string) pools.Pool {
	p, err := pools.NewWeightedPool(id, decimal.Zero, []pools.PoolAsset{
		{Denom: "uosmo", Amount: decimal.NewFromInt(1000), Weight: decimal.NewFromInt(1)},
		{Denom: "uatom", Amount: decimal.NewFromInt(1000), Weight: decimal.NewFromInt(1)},
	})
	assert.NoError(t, err)
	return p
}

func TestPoolStore_Seeded(t *testing.T) {
	s := NewPoolStore(nil, 0, []pools.Pool{testPool(t, "1")})
	assert.True(t, s.Ready())
	snapshot, version := s.Snapshot()
	assert.Equal(t, len(snapshot), 1)
	assert.Equal(t, version, uint64(1))
	assert.Error(t, s.Refresh(context.Background()))

	// Start without a fetcher is a no-op
	s.Start(context.Background())
	s.Close()
}

func TestPoolStore_NotReady(t *testing.T) {
	s := NewPoolStore(&fakePoolFetcher{err: errors.New("lcd down")}, 0, nil)
	assert.False(t, s.Ready())
	assert.Equal(t, s.Version(), uint64(0))

	s.Start(context.Background())
	assert.False(t, s.Ready())
	assert.True(t, s.UpdatedAt().IsZero())
	s.Close()
}

func TestPoolStore_BackgroundRefresh(t *testing.T) {
	fetcher := &fakePoolFetcher{pools: []pools.Pool{testPool(t, "1"), testPool(t, "2")}}
	s := NewPoolStore(fetcher, 5*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	assert.True(t, s.Ready())
	snapshot, _ := s.Snapshot()
	assert.Equal(t, len(snapshot), 2)

	deadline := time.Now().Add(2 * time.Second)
	for s.Version() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.True(t, s.Version() >= 3)
	assert.True(t, fetcher.calls.Load() >= 3)
}

func TestPoolStore_FailedRefreshKeepsSnapshot(t *testing.T) {
	fetcher := &fakePoolFetcher{pools: []pools.Pool{testPool(t, "1")}}
	s := NewPoolStore(fetcher, 0, nil)
	assert.NoError(t, s.Refresh(context.Background()))

	fetcher.err = errors.New("timeout")
	assert.Error(t, s.Refresh(context.Background()))
	snapshot, version := s.Snapshot()
	assert.Equal(t, len(snapshot), 1)
	assert.Equal(t, version, uint64(1))
}

func TestBalanceStore(t *testing.T) {
	fetcher := &fakeBalanceFetcher{coins: []models.CoinPrimitive{{Denom: "uosmo", Amount: "1500000"}}}
	s := NewBalanceStore(map[string]BalanceFetcher{"osmosis-1": fetcher}, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.True(t, s.Balance("osmosis-1", "osmo1a", "uosmo").IsZero())

	assert.NoError(t, s.EnsureFresh(context.Background(), "osmosis-1", "osmo1a"))
	assert.Equal(t, s.Balance("osmosis-1", "osmo1a", "uosmo").String(), "1500000")
	assert.True(t, s.Balance("osmosis-1", "osmo1a", "uatom").IsZero())
	assert.True(t, s.Balance("osmosis-1", "osmo1b", "uosmo").IsZero())

	// fresh entries are served from cache
	now = now.Add(30 * time.Second)
	assert.NoError(t, s.EnsureFresh(context.Background(), "osmosis-1", "osmo1a"))
	assert.Equal(t, fetcher.calls.Load(), int32(1))

	now = now.Add(time.Minute)
	assert.NoError(t, s.EnsureFresh(context.Background(), "osmosis-1", "osmo1a"))
	assert.Equal(t, fetcher.calls.Load(), int32(2))

	assert.Error(t, s.Refresh(context.Background(), "cosmoshub-4", "cosmos1a"))
	assert.Error(t, s.Set("osmosis-1", "osmo1a", []models.CoinPrimitive{{Denom: "uosmo", Amount: "x"}}))
}

func TestBalanceStore_Prune(t *testing.T) {
	s := NewBalanceStore(nil, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	coins := []models.CoinPrimitive{{Denom: "uosmo", Amount: "1"}}
	assert.NoError(t, s.Set("osmosis-1", "osmo1a", coins))
	assert.NoError(t, s.Set("osmosis-1", "osmo1b", coins))
	assert.Equal(t, s.Len(), 2)

	// still within the retention window
	now = now.Add(3 * time.Minute)
	assert.NoError(t, s.Set("osmosis-1", "osmo1c", coins))
	assert.Equal(t, s.Len(), 3)

	// osmo1a and osmo1b are now older than retainTTLs*ttl and go on the next Set
	now = now.Add(2 * time.Minute)
	assert.NoError(t, s.Set("osmosis-1", "osmo1d", coins))
	assert.Equal(t, s.Len(), 2)
	assert.True(t, s.Balance("osmosis-1", "osmo1a", "uosmo").IsZero())
	assert.Equal(t, s.Balance("osmosis-1", "osmo1c", "uosmo").String(), "1")

	now = now.Add(10 * time.Minute)
	assert.Equal(t, s.Prune(), 2)
	assert.Equal(t, s.Len(), 0)
}

func TestBalanceStore_ManyAddressesStayBounded(t *testing.T) {
	s := NewBalanceStore(nil, time.Second)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	coins := []models.CoinPrimitive{{Denom: "uosmo", Amount: "1"}}
	for i := 0; i < 1000; i++ {
		now = now.Add(100 * time.Millisecond)
		assert.NoError(t, s.Set("osmosis-1", fmt.Sprintf("osmo1%d", i), coins))
	}
	// retainTTLs seconds of traffic at ten addresses a second, plus pruning lag
	assert.True(t, s.Len() <= (retainTTLs+2)*10)
}
