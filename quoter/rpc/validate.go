package rpc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

// validateBech32Address checks the checksum of address and that its
// human readable part equals the chain's prefix
func validateBech32Address(address, expectedPrefix string) error {
	if address == "" {
		return errors.New("sender is empty")
	}
	if strings.LastIndex(address, "1") < 1 {
		return errors.New("sender is missing the bech32 separator '1'")
	}

	prefix, data, err := bech32.Decode(address)
	if err != nil {
		return fmt.Errorf("sender is not a valid bech32 address: %w", err)
	}
	if len(data) == 0 {
		return errors.New("sender has empty address data")
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("sender prefix %q does not match chain prefix %q", prefix, expectedPrefix)
	}
	return nil
}

// validateDenom rejects empty denoms and denoms the chain does not list
func validateDenom(chain models.ChainInfo, field, denom string) (models.Currency, error) {
	if strings.TrimSpace(denom) == "" {
		return models.Currency{}, fmt.Errorf("%s is empty", field)
	}
	for _, c := range chain.Currencies {
		if c.CoinMinimalDenom == denom {
			return c, nil
		}
	}
	return models.Currency{}, fmt.Errorf("%s %q is not a currency of chain %s", field, denom, chain.ChainID)
}
