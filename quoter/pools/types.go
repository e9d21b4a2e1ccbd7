// Package pools implements liquidity pool math and the route optimizer used to
// quote swaps. Everything here is pure: no I/O, no shared state, and the same
// input pools always produce the same routes.
package pools

import (
	"errors"

	"github.com/shopspring/decimal"
)

// decPrecision is the number of decimal places kept by divisions and powers
const decPrecision int32 = 18

var (
	ErrNoRoute               = errors.New("no route found")
	ErrNoPaths               = errors.New("no route paths given")
	ErrSameDenom             = errors.New("token in and token out denoms are the same")
	ErrInvalidAmount         = errors.New("token in amount must be positive")
	ErrZeroTokenOut          = errors.New("token out amount is zero")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in pool")
	ErrDenomNotInPool        = errors.New("denom not in pool")
)

var (
	decOne  = decimal.NewFromInt(1)
	decZero = decimal.Zero
)

// Coin is a denom with an integer amount in minimal units
type Coin struct {
	Denom  string
	Amount decimal.Decimal
}

// NewCoin creates a coin, truncating the amount to an integer
func NewCoin(denom string, amount decimal.Decimal) Coin {
	return Coin{Denom: denom, Amount: amount.Truncate(0)}
}

// PoolAsset is one reserve of a pool together with its weight
type PoolAsset struct {
	Denom  string
	Amount decimal.Decimal
	Weight decimal.Decimal
}

// Pool is the minimal surface the route optimizer needs from a liquidity pool.
type Pool interface {
	// ID returns the on-chain pool id
	ID() string
	// PoolAssets returns the reserves in pool order
	PoolAssets() []PoolAsset
	// HasDenom reports whether the pool holds the denom
	HasDenom(denom string) bool
	// SwapFee returns the swap fee as a rate, e.g. 0.003 for 0.3%
	SwapFee() decimal.Decimal
	// SpotPriceInOverOut returns how many tokenIn are paid per tokenOut, swap fee included
	SpotPriceInOverOut(tokenInDenom, tokenOutDenom string) (decimal.Decimal, error)
	// SimulateSwap computes the result of swapping tokenIn for tokenOutDenom without mutating the pool
	SimulateSwap(tokenIn Coin, tokenOutDenom string) (SwapStep, error)
}

// SwapStep is the result of a single pool hop
type SwapStep struct {
	AmountOut                decimal.Decimal
	BeforeSpotPriceInOverOut decimal.Decimal
	AfterSpotPriceInOverOut  decimal.Decimal
	SwapFee                  decimal.Decimal
}

// TokenOutResult aggregates the simulated result of a set of route paths.
// Prices are raw (minimal unit over minimal unit).
type TokenOutResult struct {
	Amount                   decimal.Decimal
	BeforeSpotPriceInOverOut decimal.Decimal
	BeforeSpotPriceOutOverIn decimal.Decimal
	AfterSpotPriceInOverOut  decimal.Decimal
	AfterSpotPriceOutOverIn  decimal.Decimal
	EffectivePriceInOverOut  decimal.Decimal
	EffectivePriceOutOverIn  decimal.Decimal
	SwapFee                  decimal.Decimal
	Slippage                 decimal.Decimal
}

// quo divides with the package precision, returning zero on a zero divisor
func quo(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decZero
	}
	return a.DivRound(b, decPrecision)
}

// clampRate restricts r to [0, 1]
func clampRate(r decimal.Decimal) decimal.Decimal {
	if r.IsNegative() {
		return decZero
	}
	if r.GreaterThan(decOne) {
		return decOne
	}
	return r
}
