package tradein

import (
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

// priceDecimals is the precision of the display prices
const priceDecimals int32 = 18

// SwapResult is the expected outcome of the configured swap.
// Prices are expressed in display units of the two currencies.
type SwapResult struct {
	// Amount is in minimal units of Currency
	Amount   decimal.Decimal
	Currency models.Currency

	BeforeSpotPriceWithoutSwapFeeInOverOut decimal.Decimal
	BeforeSpotPriceWithoutSwapFeeOutOverIn decimal.Decimal
	BeforeSpotPriceInOverOut               decimal.Decimal
	BeforeSpotPriceOutOverIn               decimal.Decimal
	AfterSpotPriceInOverOut                decimal.Decimal
	AfterSpotPriceOutOverIn                decimal.Decimal
	EffectivePriceInOverOut                decimal.Decimal
	EffectivePriceOutOverIn                decimal.Decimal
	SwapFee                                decimal.Decimal
	Slippage                               decimal.Decimal
}

// DisplayAmount returns Amount in display units
func (r SwapResult) DisplayAmount() decimal.Decimal {
	return r.Amount.Shift(-int32(r.Currency.CoinDecimals))
}

func emptySwapResult(out models.Currency) SwapResult {
	return SwapResult{
		Amount:                                 decimal.Zero,
		Currency:                               out,
		BeforeSpotPriceWithoutSwapFeeInOverOut: decimal.Zero,
		BeforeSpotPriceWithoutSwapFeeOutOverIn: decimal.Zero,
		BeforeSpotPriceInOverOut:               decimal.Zero,
		BeforeSpotPriceOutOverIn:               decimal.Zero,
		AfterSpotPriceInOverOut:                decimal.Zero,
		AfterSpotPriceOutOverIn:                decimal.Zero,
		EffectivePriceInOverOut:                decimal.Zero,
		EffectivePriceOutOverIn:                decimal.Zero,
		SwapFee:                                decimal.Zero,
		Slippage:                               decimal.Zero,
	}
}

// newSwapResult converts raw optimizer prices to display prices.
// InOverOut prices are multiplied by 10^(outDecimals-inDecimals), OutOverIn prices divided by it.
func newSwapResult(in, out models.Currency, result pools.TokenOutResult) SwapResult {
	mult := decimal.New(1, int32(out.CoinDecimals-in.CoinDecimals))

	withoutFee := mulTruncate(result.BeforeSpotPriceInOverOut, decimal.NewFromInt(1).Sub(result.SwapFee))

	return SwapResult{
		Amount:                                 result.Amount,
		Currency:                               out,
		BeforeSpotPriceWithoutSwapFeeInOverOut: mulTruncate(withoutFee, mult),
		BeforeSpotPriceWithoutSwapFeeOutOverIn: quoTruncate(quoTruncate(decimal.NewFromInt(1), withoutFee), mult),
		BeforeSpotPriceInOverOut:               mulTruncate(result.BeforeSpotPriceInOverOut, mult),
		BeforeSpotPriceOutOverIn:               quoTruncate(result.BeforeSpotPriceOutOverIn, mult),
		AfterSpotPriceInOverOut:                mulTruncate(result.AfterSpotPriceInOverOut, mult),
		AfterSpotPriceOutOverIn:                quoTruncate(result.AfterSpotPriceOutOverIn, mult),
		EffectivePriceInOverOut:                mulTruncate(result.EffectivePriceInOverOut, mult),
		EffectivePriceOutOverIn:                quoTruncate(result.EffectivePriceOutOverIn, mult),
		SwapFee:                                result.SwapFee,
		Slippage:                               result.Slippage,
	}
}

func mulTruncate(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Truncate(priceDecimals)
}

func quoTruncate(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	q, _ := a.QuoRem(b, priceDecimals)
	return q
}
