package tradein

import (
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

// ChainGetter resolves chain metadata
type ChainGetter interface {
	GetChain(chainID string) (models.ChainInfo, error)
}

// BalanceQuerier reads already cached balances.
// Implementations must not block on network I/O.
type BalanceQuerier interface {
	// Balance returns the balance in minimal units, zero when unknown
	Balance(chainID, address, denom string) decimal.Decimal
}

// FeeConfig supplies the transaction fee used when the max amount is requested
type FeeConfig interface {
	Fee() models.CoinPrimitive
}

// StaticFee is a FeeConfig with a fixed fee
type StaticFee models.CoinPrimitive

func (f StaticFee) Fee() models.CoinPrimitive {
	return models.CoinPrimitive(f)
}
