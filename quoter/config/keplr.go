package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

// KeplrChainInfo is the part of a Keplr chain registry entry the quoter reads.
// The currency layout matches models.Currency.
type KeplrChainInfo struct {
	Rest          string            `json:"rest"`
	ChainID       string            `json:"chainId"`
	ChainName     string            `json:"chainName"`
	Bech32Config  KeplrBech32Config `json:"bech32Config"`
	Currencies    []models.Currency `json:"currencies"`
	FeeCurrencies []models.Currency `json:"feeCurrencies"`
}

type KeplrBech32Config struct {
	Bech32PrefixAccAddr string `json:"bech32PrefixAccAddr"`
}

// ChainInfo converts the entry to the quoter's chain metadata
func (k KeplrChainInfo) ChainInfo() models.ChainInfo {
	info := models.ChainInfo{
		ChainID:       k.ChainID,
		ChainName:     k.ChainName,
		Bech32Prefix:  k.Bech32Config.Bech32PrefixAccAddr,
		Currencies:    k.Currencies,
		FeeCurrencies: k.FeeCurrencies,
	}
	if k.Rest != "" {
		info.Rest = []string{k.Rest}
	}
	return info
}

// LoadKeplrChains reads <name>.json entries from a Keplr registry directory,
// e.g. the cosmos/ folder of chainapsis/keplr-chain-registry
func LoadKeplrChains(dir string, names []string) ([]models.ChainInfo, error) {
	chains := make([]models.ChainInfo, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read keplr chain %s: %w", name, err)
		}
		var entry KeplrChainInfo
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse keplr chain %s: %w", name, err)
		}
		chains = append(chains, entry.ChainInfo())
	}
	if err := validateChains(chains); err != nil {
		return nil, err
	}
	return chains, nil
}

// MergeChains appends the chains of extra whose id is not in base
func MergeChains(base, extra []models.ChainInfo) []models.ChainInfo {
	seen := make(map[string]bool, len(base))
	merged := make([]models.ChainInfo, 0, len(base)+len(extra))
	for _, c := range base {
		seen[c.ChainID] = true
		merged = append(merged, c)
	}
	for _, c := range extra {
		if !seen[c.ChainID] {
			seen[c.ChainID] = true
			merged = append(merged, c)
		}
	}
	return merged
}
