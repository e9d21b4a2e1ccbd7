package registry_test

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/registry"
)

var chains = []models.ChainInfo{
	{
		ChainID:      "osmosis-1",
		ChainName:    "Osmosis",
		Bech32Prefix: "osmo",
		Currencies: []models.Currency{
			{CoinDenom: "OSMO", CoinMinimalDenom: "uosmo", CoinDecimals: 6},
			{CoinDenom: "ATOM", CoinMinimalDenom: "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", CoinDecimals: 6},
		},
	},
	{
		ChainID:      "osmo-test-5",
		ChainName:    "Osmosis Testnet",
		Bech32Prefix: "osmo",
	},
}

func TestRegistry(t *testing.T) {
	r, err := registry.New(chains)
	assert.NoError(t, err)

	chain, err := r.GetChain("osmosis-1")
	assert.NoError(t, err)
	assert.Equal(t, chain.ChainName, "Osmosis")

	_, err = r.GetChain("cosmoshub-4")
	assert.True(t, errors.Is(err, registry.ErrChainNotFound))

	assert.Equal(t, len(r.Chains()), 2)
	assert.Equal(t, r.Chains()[1].ChainID, "osmo-test-5")

	currency, ok := r.FindCurrency("osmosis-1", "uosmo")
	assert.True(t, ok)
	assert.Equal(t, currency.CoinDenom, "OSMO")

	_, ok = r.FindCurrency("osmosis-1", "uatom")
	assert.False(t, ok)
	_, ok = r.FindCurrency("cosmoshub-4", "uatom")
	assert.False(t, ok)
}

func TestRegistry_Invalid(t *testing.T) {
	_, err := registry.New([]models.ChainInfo{{ChainID: "a"}, {ChainID: "a"}})
	assert.Error(t, err)

	_, err = registry.New([]models.ChainInfo{{ChainName: "no id"}})
	assert.Error(t, err)
}
