package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

// ChainConfigLoader loads chain metadata and static pools
type ChainConfigLoader struct{}

// NewChainConfigLoader creates a new chain config loader.
func NewChainConfigLoader() *ChainConfigLoader {
	return &ChainConfigLoader{}
}

// LoadFromFile reads a chain config. The format follows the extension:
// .json, .yaml/.yml, anything else is parsed as TOML.
func (l *ChainConfigLoader) LoadFromFile(filePath string) ([]models.ChainInfo, []pools.Pool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read chain config file: %w", err)
	}

	var file ChainsFile
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}

	return l.Convert(&file)
}

// Convert validates a ChainsFile and builds the pool types
func (l *ChainConfigLoader) Convert(file *ChainsFile) ([]models.ChainInfo, []pools.Pool, error) {
	if file == nil || len(file.Chains) == 0 {
		return nil, nil, fmt.Errorf("no chains in config")
	}
	if err := validateChains(file.Chains); err != nil {
		return nil, nil, err
	}

	poolList := make([]pools.Pool, 0, len(file.Pools))
	seen := make(map[string]bool, len(file.Pools))
	for i, sp := range file.Pools {
		if sp.ID == "" {
			return nil, nil, fmt.Errorf("pool %d: id is required", i)
		}
		if seen[sp.ID] {
			return nil, nil, fmt.Errorf("duplicate pool id %s", sp.ID)
		}
		seen[sp.ID] = true

		pool, err := convertPool(sp)
		if err != nil {
			return nil, nil, err
		}
		poolList = append(poolList, pool)
	}

	return file.Chains, poolList, nil
}

func validateChains(chains []models.ChainInfo) error {
	ids := make(map[string]bool, len(chains))
	for i, chain := range chains {
		if chain.ChainID == "" {
			return fmt.Errorf("chain %d: chain_id is required", i)
		}
		if ids[chain.ChainID] {
			return fmt.Errorf("duplicate chain_id %s", chain.ChainID)
		}
		ids[chain.ChainID] = true

		if chain.Bech32Prefix == "" {
			return fmt.Errorf("chain %s: bech32_prefix is required", chain.ChainID)
		}
		for j, currency := range chain.Currencies {
			if currency.CoinMinimalDenom == "" {
				return fmt.Errorf("chain %s: currency %d has no coin_minimal_denom", chain.ChainID, j)
			}
			if currency.CoinDecimals < 0 || currency.CoinDecimals > 18 {
				return fmt.Errorf("chain %s: currency %s has invalid decimals %d",
					chain.ChainID, currency.CoinMinimalDenom, currency.CoinDecimals)
			}
		}
	}
	return nil
}

func convertPool(sp StaticPool) (pools.Pool, error) {
	fee := decimal.Zero
	if sp.SwapFee != "" {
		var err error
		fee, err = decimal.NewFromString(sp.SwapFee)
		if err != nil {
			return nil, fmt.Errorf("pool %s: invalid swap_fee: %w", sp.ID, err)
		}
	}

	assets := make([]pools.PoolAsset, len(sp.Assets))
	for i, a := range sp.Assets {
		amount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			return nil, fmt.Errorf("pool %s: invalid amount of %s: %w", sp.ID, a.Denom, err)
		}
		weight := decimal.NewFromInt(1)
		if a.Weight != "" {
			weight, err = decimal.NewFromString(a.Weight)
			if err != nil {
				return nil, fmt.Errorf("pool %s: invalid weight of %s: %w", sp.ID, a.Denom, err)
			}
		}
		assets[i] = pools.PoolAsset{Denom: a.Denom, Amount: amount, Weight: weight}
	}

	return pools.NewWeightedPool(sp.ID, fee, assets)
}
