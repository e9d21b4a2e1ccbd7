package lcdquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

// maxPages bounds pagination in case a node keeps returning the same key
const maxPages = 1000

// GetNodeInfo returns the node and application versions of the current endpoint
func (c *LcdQueryClient) GetNodeInfo(ctx context.Context) (NodeInfoResponse, error) {
	body, err := c.get(ctx, healthPath)
	if err != nil {
		return NodeInfoResponse{}, err
	}
	var info NodeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return NodeInfoResponse{}, fmt.Errorf("failed to parse node info: %w", err)
	}
	return info, nil
}

// GetGammPools pages through every gamm pool
func (c *LcdQueryClient) GetGammPools(ctx context.Context) ([]GammPool, error) {
	var all []GammPool
	var key string
	for page := 0; page < maxPages; page++ {
		body, err := c.get(ctx, "/osmosis/gamm/v1beta1/pools?"+c.pageQuery(key))
		if err != nil {
			return nil, fmt.Errorf("failed to query pools: %w", err)
		}
		var resp PoolsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse pools response: %w", err)
		}
		all = append(all, resp.Pools...)

		if resp.Pagination.NextKey == nil || *resp.Pagination.NextKey == "" || *resp.Pagination.NextKey == key {
			return all, nil
		}
		key = *resp.Pagination.NextKey
	}
	return nil, fmt.Errorf("pools pagination exceeded %d pages", maxPages)
}

// GetPools returns the weighted pools of the chain. Pools of other types and
// pools that fail validation are skipped.
func (c *LcdQueryClient) GetPools(ctx context.Context) ([]pools.Pool, error) {
	raw, err := c.GetGammPools(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]pools.Pool, 0, len(raw))
	skipped := 0
	for _, p := range raw {
		if p.Type != WeightedPoolType {
			skipped++
			continue
		}
		pool, err := ToWeightedPool(p)
		if err != nil {
			log.Debug().Err(err).Str("pool_id", p.ID).Msg("Skipping pool")
			skipped++
			continue
		}
		out = append(out, pool)
	}

	log.Debug().Int("pools", len(out)).Int("skipped", skipped).Msg("Fetched pools")
	return out, nil
}

// ToWeightedPool converts a gamm pool response into a WeightedPool
func ToWeightedPool(p GammPool) (*pools.WeightedPool, error) {
	fee, err := decimal.NewFromString(p.PoolParams.SwapFee)
	if err != nil {
		return nil, fmt.Errorf("pool %s: invalid swap fee %q: %w", p.ID, p.PoolParams.SwapFee, err)
	}

	assets := make([]pools.PoolAsset, len(p.PoolAssets))
	for i, a := range p.PoolAssets {
		amount, err := decimal.NewFromString(a.Token.Amount)
		if err != nil {
			return nil, fmt.Errorf("pool %s: invalid amount of %s: %w", p.ID, a.Token.Denom, err)
		}
		weight, err := decimal.NewFromString(a.Weight)
		if err != nil {
			return nil, fmt.Errorf("pool %s: invalid weight of %s: %w", p.ID, a.Token.Denom, err)
		}
		assets[i] = pools.PoolAsset{Denom: a.Token.Denom, Amount: amount, Weight: weight}
	}

	return pools.NewWeightedPool(p.ID, fee, assets)
}

// GetBalances returns every balance held by address
func (c *LcdQueryClient) GetBalances(ctx context.Context, address string) ([]models.CoinPrimitive, error) {
	var all []models.CoinPrimitive
	var key string
	for page := 0; page < maxPages; page++ {
		path := fmt.Sprintf("/cosmos/bank/v1beta1/balances/%s?%s", url.PathEscape(address), c.pageQuery(key))
		body, err := c.get(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to query balances of %s: %w", address, err)
		}
		var resp BalancesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse balances response: %w", err)
		}
		for _, b := range resp.Balances {
			all = append(all, models.CoinPrimitive{Denom: b.Denom, Amount: b.Amount})
		}

		if resp.Pagination.NextKey == nil || *resp.Pagination.NextKey == "" || *resp.Pagination.NextKey == key {
			return all, nil
		}
		key = *resp.Pagination.NextKey
	}
	return nil, fmt.Errorf("balances pagination exceeded %d pages", maxPages)
}

func (c *LcdQueryClient) pageQuery(key string) string {
	q := url.Values{}
	q.Set("pagination.limit", fmt.Sprint(c.failoverConfig.PageLimit))
	if key != "" {
		q.Set("pagination.key", key)
	}
	return q.Encode()
}
