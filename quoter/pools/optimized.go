package pools

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxHops is the longest route, in pools, the optimizer will consider
	DefaultMaxHops = 3
	// MaxCandidateRoutes caps route discovery on dense pool graphs
	MaxCandidateRoutes = 20
	// SplitSteps is the number of chunks the input amount is cut into when split across routes
	SplitSteps = 10
)

// OptimizedRoutes finds routes through a fixed set of pools and splits a swap
// across the best of them.
type OptimizedRoutes struct {
	pools      []Pool
	denomPools map[string][]int // denom -> indexes into pools
	maxHops    int
}

// Option configures OptimizedRoutes
type Option func(*OptimizedRoutes)

// WithMaxHops sets the longest route in pools. Values below 1 are ignored.
func WithMaxHops(n int) Option {
	return func(o *OptimizedRoutes) {
		if n > 0 {
			o.maxHops = n
		}
	}
}

// NewOptimizedRoutes indexes pools by denom
func NewOptimizedRoutes(pools []Pool, opts ...Option) *OptimizedRoutes {
	o := &OptimizedRoutes{
		pools:      pools,
		denomPools: make(map[string][]int),
		maxHops:    DefaultMaxHops,
	}
	for _, opt := range opts {
		opt(o)
	}
	for i, pool := range pools {
		for _, asset := range pool.PoolAssets() {
			o.denomPools[asset.Denom] = append(o.denomPools[asset.Denom], i)
		}
	}
	return o
}

// Pools returns the pools the optimizer was built from
func (o *OptimizedRoutes) Pools() []Pool {
	return o.pools
}

// GetCandidateRoutes lists routes from tokenInDenom to tokenOutDenom, shortest first.
// A route never uses the same pool twice and never passes through a denom twice.
func (o *OptimizedRoutes) GetCandidateRoutes(tokenInDenom, tokenOutDenom string) []RoutePath {
	if tokenInDenom == tokenOutDenom {
		return nil
	}
	if len(o.denomPools[tokenInDenom]) == 0 || len(o.denomPools[tokenOutDenom]) == 0 {
		return nil
	}

	var found []RoutePath
	for hops := 1; hops <= o.maxHops && len(found) < MaxCandidateRoutes; hops++ {
		visited := map[string]bool{tokenInDenom: true}
		usedPools := make(map[int]bool)
		found = o.findRoutes(hops, tokenInDenom, tokenInDenom, tokenOutDenom, visited, usedPools, nil, nil, found)
	}
	return found
}

// findRoutes is a depth first walk that records routes of exactly wantHops pools
func (o *OptimizedRoutes) findRoutes(
	wantHops int,
	tokenInDenom string,
	current string,
	target string,
	visited map[string]bool,
	usedPools map[int]bool,
	path []Pool,
	outs []string,
	found []RoutePath,
) []RoutePath {
	for _, idx := range o.denomPools[current] {
		if usedPools[idx] {
			continue
		}
		pool := o.pools[idx]
		for _, asset := range pool.PoolAssets() {
			if len(found) >= MaxCandidateRoutes {
				return found
			}
			next := asset.Denom
			if next == current || visited[next] {
				continue
			}

			nextPath, nextOuts := cloneRoute(append(path, pool), append(outs, next))
			if len(nextPath) == wantHops {
				if next == target {
					found = append(found, RoutePath{
						Pools:          nextPath,
						TokenOutDenoms: nextOuts,
						TokenInDenom:   tokenInDenom,
					})
				}
				continue
			}
			// passing through the target only makes a longer copy of a shorter route
			if next == target {
				continue
			}

			usedPools[idx] = true
			visited[next] = true
			found = o.findRoutes(wantHops, tokenInDenom, next, target, visited, usedPools, nextPath, nextOuts, found)
			usedPools[idx] = false
			visited[next] = false
		}
	}
	return found
}

// GetOptimizedRoutesByTokenIn picks up to maxRoutes routes and splits tokenIn across
// them so the total output is as large as the greedy allocation can make it.
// The returned amounts always sum to tokenIn.Amount.
func (o *OptimizedRoutes) GetOptimizedRoutesByTokenIn(
	tokenIn Coin,
	tokenOutDenom string,
	maxRoutes int,
) ([]RoutePathWithAmount, error) {
	if !tokenIn.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if tokenIn.Denom == tokenOutDenom {
		return nil, ErrSameDenom
	}
	if maxRoutes < 1 {
		maxRoutes = 1
	}
	amountIn := tokenIn.Amount.Truncate(0)
	if !amountIn.IsPositive() {
		return nil, ErrInvalidAmount
	}

	candidates := o.GetCandidateRoutes(tokenIn.Denom, tokenOutDenom)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, tokenIn.Denom, tokenOutDenom)
	}

	type scoredRoute struct {
		route RoutePath
		out   decimal.Decimal
	}
	scored := make([]scoredRoute, 0, len(candidates))
	var firstErr error
	for _, route := range candidates {
		out, err := route.CalculateTokenOut(amountIn)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		scored = append(scored, scoredRoute{route: route, out: out})
	}
	if len(scored) == 0 {
		return nil, firstErr
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].out.GreaterThan(scored[j].out)
	})

	// Each route is simulated against untouched reserves, so selected routes must not share a pool.
	routes := make([]RoutePath, 0, maxRoutes)
	used := make(map[string]bool)
	for _, s := range scored {
		if len(routes) == maxRoutes {
			break
		}
		if sharesPool(s.route, used) {
			continue
		}
		for _, pool := range s.route.Pools {
			used[pool.ID()] = true
		}
		routes = append(routes, s.route)
	}
	return splitAmount(routes, amountIn), nil
}

func sharesPool(route RoutePath, used map[string]bool) bool {
	for _, pool := range route.Pools {
		if used[pool.ID()] {
			return true
		}
	}
	return false
}

// splitAmount hands out amountIn in SplitSteps chunks, each to the route with
// the largest marginal output at that point. routes[0] must accept the full amount.
func splitAmount(routes []RoutePath, amountIn decimal.Decimal) []RoutePathWithAmount {
	whole := []RoutePathWithAmount{{RoutePath: routes[0], Amount: amountIn}}
	if len(routes) == 1 {
		return whole
	}

	chunk := amountIn.Div(decimal.NewFromInt(SplitSteps)).Truncate(0)
	if chunk.IsZero() {
		return whole
	}

	allocated := make([]decimal.Decimal, len(routes))
	outs := make([]decimal.Decimal, len(routes))
	for i := range routes {
		allocated[i] = decZero
		outs[i] = decZero
	}

	remaining := amountIn
	for step := 0; step < SplitSteps; step++ {
		amount := chunk
		if step == SplitSteps-1 {
			amount = remaining
		}

		best := -1
		var bestGain, bestOut decimal.Decimal
		for i, route := range routes {
			out, err := route.CalculateTokenOut(allocated[i].Add(amount))
			if err != nil {
				continue
			}
			gain := out.Sub(outs[i])
			if best == -1 || gain.GreaterThan(bestGain) {
				best = i
				bestGain = gain
				bestOut = out
			}
		}
		if best == -1 {
			return whole
		}

		allocated[best] = allocated[best].Add(amount)
		outs[best] = bestOut
		remaining = remaining.Sub(amount)
	}

	result := make([]RoutePathWithAmount, 0, len(routes))
	for i, route := range routes {
		if allocated[i].IsPositive() {
			result = append(result, RoutePathWithAmount{RoutePath: route, Amount: allocated[i]})
		}
	}
	return result
}

// CalculateTokenOutByTokenIn simulates the given paths and aggregates prices,
// fee and slippage. Per path values are weighted by the path's share of the input.
func (o *OptimizedRoutes) CalculateTokenOutByTokenIn(paths []RoutePathWithAmount) (TokenOutResult, error) {
	if len(paths) == 0 {
		return TokenOutResult{}, ErrNoPaths
	}

	totalIn := decZero
	for _, path := range paths {
		totalIn = totalIn.Add(path.Amount)
	}
	if !totalIn.IsPositive() {
		return TokenOutResult{}, ErrInvalidAmount
	}

	amountOut := decZero
	before := decZero
	after := decZero
	swapFee := decZero
	for _, path := range paths {
		sim, err := path.simulate(path.Amount)
		if err != nil {
			return TokenOutResult{}, err
		}
		ratio := quo(path.Amount, totalIn)
		before = before.Add(sim.beforeSpotPriceInOverOut.Mul(ratio))
		after = after.Add(sim.afterSpotPriceInOverOut.Mul(ratio))
		swapFee = swapFee.Add(sim.swapFee.Mul(ratio))
		amountOut = amountOut.Add(sim.amountOut)
	}
	if !amountOut.IsPositive() {
		return TokenOutResult{}, ErrZeroTokenOut
	}

	before = before.Round(decPrecision)
	after = after.Round(decPrecision)
	effectiveInOverOut := quo(totalIn, amountOut)

	return TokenOutResult{
		Amount:                   amountOut,
		BeforeSpotPriceInOverOut: before,
		BeforeSpotPriceOutOverIn: quo(decOne, before),
		AfterSpotPriceInOverOut:  after,
		AfterSpotPriceOutOverIn:  quo(decOne, after),
		EffectivePriceInOverOut:  effectiveInOverOut,
		EffectivePriceOutOverIn:  quo(amountOut, totalIn),
		SwapFee:                  clampRate(swapFee.Round(decPrecision)),
		Slippage:                 clampRate(quo(effectiveInOverOut, before).Sub(decOne)),
	}, nil
}
