package pools

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// RoutePath is an ordered list of pools leading from TokenInDenom to the last
// entry of TokenOutDenoms. TokenOutDenoms[i] is the denom received from Pools[i].
type RoutePath struct {
	Pools          []Pool
	TokenOutDenoms []string
	TokenInDenom   string
}

// RoutePathWithAmount is a route with the part of the input amount routed through it
type RoutePathWithAmount struct {
	RoutePath
	Amount decimal.Decimal
}

// routeSimulation accumulates the per hop values of a route
type routeSimulation struct {
	amountOut                decimal.Decimal
	beforeSpotPriceInOverOut decimal.Decimal
	afterSpotPriceInOverOut  decimal.Decimal
	swapFee                  decimal.Decimal
}

// TokenOutDenom returns the final denom of the route
func (r RoutePath) TokenOutDenom() string {
	if len(r.TokenOutDenoms) == 0 {
		return ""
	}
	return r.TokenOutDenoms[len(r.TokenOutDenoms)-1]
}

// PoolIDs returns the ids of the pools along the route
func (r RoutePath) PoolIDs() []string {
	ids := make([]string, len(r.Pools))
	for i, pool := range r.Pools {
		ids[i] = pool.ID()
	}
	return ids
}

// String renders the route as "uosmo -(1)-> uatom"
func (r RoutePath) String() string {
	var b strings.Builder
	b.WriteString(r.TokenInDenom)
	for i, pool := range r.Pools {
		b.WriteString(" -(")
		b.WriteString(pool.ID())
		b.WriteString(")-> ")
		b.WriteString(r.TokenOutDenoms[i])
	}
	return b.String()
}

// CalculateTokenOut returns the amount received when amountIn is swapped along the route
func (r RoutePath) CalculateTokenOut(amountIn decimal.Decimal) (decimal.Decimal, error) {
	sim, err := r.simulate(amountIn)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return sim.amountOut, nil
}

func (r RoutePath) simulate(amountIn decimal.Decimal) (routeSimulation, error) {
	if len(r.Pools) == 0 || len(r.Pools) != len(r.TokenOutDenoms) {
		return routeSimulation{}, errors.New("malformed route path")
	}

	sim := routeSimulation{
		beforeSpotPriceInOverOut: decOne,
		afterSpotPriceInOverOut:  decOne,
		swapFee:                  decZero,
	}

	tokenIn := NewCoin(r.TokenInDenom, amountIn)
	for i, pool := range r.Pools {
		step, err := pool.SimulateSwap(tokenIn, r.TokenOutDenoms[i])
		if err != nil {
			return routeSimulation{}, err
		}
		sim.beforeSpotPriceInOverOut = sim.beforeSpotPriceInOverOut.Mul(step.BeforeSpotPriceInOverOut).Round(decPrecision)
		sim.afterSpotPriceInOverOut = sim.afterSpotPriceInOverOut.Mul(step.AfterSpotPriceInOverOut).Round(decPrecision)
		// fees compound: a second hop only charges on what is left after the first
		sim.swapFee = sim.swapFee.Add(decOne.Sub(sim.swapFee).Mul(step.SwapFee)).Round(decPrecision)
		tokenIn = NewCoin(r.TokenOutDenoms[i], step.AmountOut)
	}
	sim.amountOut = tokenIn.Amount

	return sim, nil
}

func cloneRoute(pools []Pool, outs []string) ([]Pool, []string) {
	p := make([]Pool, len(pools))
	copy(p, pools)
	o := make([]string, len(outs))
	copy(o, outs)
	return p, o
}
