package pools

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WeightedPool is a Balancer style pool where each reserve carries a weight.
// A pool with equal weights behaves as a constant product pool.
type WeightedPool struct {
	id      string
	swapFee decimal.Decimal
	assets  []PoolAsset
}

var _ Pool = (*WeightedPool)(nil)

// NewWeightedPool validates the assets and returns a pool.
// The swap fee must be in [0, 1) and every asset needs a positive weight.
func NewWeightedPool(id string, swapFee decimal.Decimal, assets []PoolAsset) (*WeightedPool, error) {
	if len(assets) < 2 {
		return nil, fmt.Errorf("pool %s: at least 2 assets are required, got %d", id, len(assets))
	}
	if swapFee.IsNegative() || swapFee.GreaterThanOrEqual(decOne) {
		return nil, fmt.Errorf("pool %s: swap fee %s must be in [0, 1)", id, swapFee)
	}

	seen := make(map[string]bool, len(assets))
	copied := make([]PoolAsset, len(assets))
	for i, asset := range assets {
		if asset.Denom == "" {
			return nil, fmt.Errorf("pool %s: asset %d has an empty denom", id, i)
		}
		if seen[asset.Denom] {
			return nil, fmt.Errorf("pool %s: duplicate denom %s", id, asset.Denom)
		}
		if !asset.Weight.IsPositive() {
			return nil, fmt.Errorf("pool %s: weight of %s must be positive", id, asset.Denom)
		}
		if asset.Amount.IsNegative() {
			return nil, fmt.Errorf("pool %s: amount of %s must not be negative", id, asset.Denom)
		}
		seen[asset.Denom] = true
		copied[i] = asset
	}

	return &WeightedPool{
		id:      id,
		swapFee: swapFee,
		assets:  copied,
	}, nil
}

// ID returns the pool id
func (p *WeightedPool) ID() string {
	return p.id
}

// PoolAssets returns a copy of the pool reserves
func (p *WeightedPool) PoolAssets() []PoolAsset {
	out := make([]PoolAsset, len(p.assets))
	copy(out, p.assets)
	return out
}

// HasDenom reports whether the pool holds denom
func (p *WeightedPool) HasDenom(denom string) bool {
	_, ok := p.asset(denom)
	return ok
}

// SwapFee returns the swap fee rate
func (p *WeightedPool) SwapFee() decimal.Decimal {
	return p.swapFee
}

// SpotPriceInOverOut returns the spot price of tokenOut in tokenIn, swap fee included
func (p *WeightedPool) SpotPriceInOverOut(tokenInDenom, tokenOutDenom string) (decimal.Decimal, error) {
	in, out, err := p.pair(tokenInDenom, tokenOutDenom)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return p.spotPrice(in, out)
}

// SimulateSwap computes the output amount and the spot prices before and after the swap
func (p *WeightedPool) SimulateSwap(tokenIn Coin, tokenOutDenom string) (SwapStep, error) {
	in, out, err := p.pair(tokenIn.Denom, tokenOutDenom)
	if err != nil {
		return SwapStep{}, err
	}
	if !tokenIn.Amount.IsPositive() {
		return SwapStep{}, ErrInvalidAmount
	}

	before, err := p.spotPrice(in, out)
	if err != nil {
		return SwapStep{}, err
	}

	amountOut, err := p.outGivenIn(in, out, tokenIn.Amount)
	if err != nil {
		return SwapStep{}, err
	}
	if !amountOut.IsPositive() {
		return SwapStep{}, fmt.Errorf("pool %s: %w", p.id, ErrZeroTokenOut)
	}
	if amountOut.GreaterThanOrEqual(out.Amount) {
		return SwapStep{}, fmt.Errorf("pool %s: %w", p.id, ErrInsufficientLiquidity)
	}

	in.Amount = in.Amount.Add(tokenIn.Amount)
	out.Amount = out.Amount.Sub(amountOut)
	after, err := p.spotPrice(in, out)
	if err != nil {
		return SwapStep{}, err
	}

	return SwapStep{
		AmountOut:                amountOut,
		BeforeSpotPriceInOverOut: before,
		AfterSpotPriceInOverOut:  after,
		SwapFee:                  p.swapFee,
	}, nil
}

func (p *WeightedPool) asset(denom string) (PoolAsset, bool) {
	for _, a := range p.assets {
		if a.Denom == denom {
			return a, true
		}
	}
	return PoolAsset{}, false
}

func (p *WeightedPool) pair(tokenInDenom, tokenOutDenom string) (PoolAsset, PoolAsset, error) {
	if tokenInDenom == tokenOutDenom {
		return PoolAsset{}, PoolAsset{}, ErrSameDenom
	}
	in, ok := p.asset(tokenInDenom)
	if !ok {
		return PoolAsset{}, PoolAsset{}, fmt.Errorf("pool %s: %w: %s", p.id, ErrDenomNotInPool, tokenInDenom)
	}
	out, ok := p.asset(tokenOutDenom)
	if !ok {
		return PoolAsset{}, PoolAsset{}, fmt.Errorf("pool %s: %w: %s", p.id, ErrDenomNotInPool, tokenOutDenom)
	}
	return in, out, nil
}

// spotPrice = (Bin / Win) / (Bout / Wout) * 1 / (1 - fee)
func (p *WeightedPool) spotPrice(in, out PoolAsset) (decimal.Decimal, error) {
	if !out.Amount.IsPositive() || !in.Amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("pool %s: %w", p.id, ErrInsufficientLiquidity)
	}
	num := quo(in.Amount, in.Weight)
	den := quo(out.Amount, out.Weight)
	spot := quo(num, den)
	return spot.Mul(quo(decOne, decOne.Sub(p.swapFee))).Round(decPrecision), nil
}

// outGivenIn = Bout * (1 - (Bin / (Bin + in * (1 - fee))) ^ (Win / Wout))
func (p *WeightedPool) outGivenIn(in, out PoolAsset, amountIn decimal.Decimal) (decimal.Decimal, error) {
	inAfterFee := amountIn.Mul(decOne.Sub(p.swapFee))
	y := quo(in.Amount, in.Amount.Add(inAfterFee))
	exp := quo(in.Weight, out.Weight)

	ratioPow := y
	if !exp.Equal(decOne) {
		var err error
		ratioPow, err = y.PowWithPrecision(exp, decPrecision)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("pool %s: power calculation failed: %w", p.id, err)
		}
	}

	return out.Amount.Mul(decOne.Sub(ratioPow)).Truncate(0), nil
}
