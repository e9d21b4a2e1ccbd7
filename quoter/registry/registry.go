package registry

import (
	"errors"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

// ErrChainNotFound is returned for a chain id that is not registered
var ErrChainNotFound = errors.New("chain not found")

// Registry is a read only index of chain metadata
type Registry struct {
	chains []models.ChainInfo
	byID   map[string]int
}

// New indexes chains by chain id. Duplicate ids are rejected.
func New(chains []models.ChainInfo) (*Registry, error) {
	r := &Registry{
		chains: make([]models.ChainInfo, len(chains)),
		byID:   make(map[string]int, len(chains)),
	}
	for i, chain := range chains {
		if chain.ChainID == "" {
			return nil, fmt.Errorf("chain %d has an empty chain id", i)
		}
		if _, ok := r.byID[chain.ChainID]; ok {
			return nil, fmt.Errorf("duplicate chain id %s", chain.ChainID)
		}
		r.byID[chain.ChainID] = i
		r.chains[i] = chain
	}
	return r, nil
}

// GetChain returns the chain with the given id
func (r *Registry) GetChain(chainID string) (models.ChainInfo, error) {
	idx, ok := r.byID[chainID]
	if !ok {
		return models.ChainInfo{}, fmt.Errorf("%w: %s", ErrChainNotFound, chainID)
	}
	return r.chains[idx], nil
}

// Chains returns every registered chain in load order
func (r *Registry) Chains() []models.ChainInfo {
	out := make([]models.ChainInfo, len(r.chains))
	copy(out, r.chains)
	return out
}

// FindCurrency looks up a currency on a chain by minimal denom
func (r *Registry) FindCurrency(chainID, denom string) (models.Currency, bool) {
	chain, err := r.GetChain(chainID)
	if err != nil {
		return models.Currency{}, false
	}
	for _, currency := range chain.Currencies {
		if currency.CoinMinimalDenom == denom {
			return currency, true
		}
	}
	return models.Currency{}, false
}
