package models

// UnknownDenom is the minimal denom reported before pools are loaded.
const UnknownDenom = "_unknown"

// Currency describes a token the way Keplr chain configs do
type Currency struct {
	CoinDenom        string `json:"coinDenom" toml:"coin_denom" yaml:"coin_denom"`
	CoinMinimalDenom string `json:"coinMinimalDenom" toml:"coin_minimal_denom" yaml:"coin_minimal_denom"`
	CoinDecimals     int    `json:"coinDecimals" toml:"coin_decimals" yaml:"coin_decimals"`
	CoinGeckoID      string `json:"coinGeckoId,omitempty" toml:"coin_gecko_id" yaml:"coin_gecko_id"`
	CoinImageURL     string `json:"coinImageUrl,omitempty" toml:"coin_image_url" yaml:"coin_image_url"`
}

// UnknownCurrency is returned in place of a currency that can not be resolved yet,
// for example before the pools are fetched for the first time.
var UnknownCurrency = Currency{
	CoinDenom:        "UNKNOWN",
	CoinMinimalDenom: UnknownDenom,
	CoinDecimals:     0,
}

// IsUnknown reports whether the currency is the unknown sentinel
func (c Currency) IsUnknown() bool {
	return c.CoinMinimalDenom == UnknownDenom
}

// ChainInfo holds the chain metadata needed to resolve currencies and addresses
type ChainInfo struct {
	ChainID       string     `json:"chainId" toml:"chain_id" yaml:"chain_id"`
	ChainName     string     `json:"chainName" toml:"chain_name" yaml:"chain_name"`
	Bech32Prefix  string     `json:"bech32Prefix" toml:"bech32_prefix" yaml:"bech32_prefix"`
	Rest          []string   `json:"rest,omitempty" toml:"rest" yaml:"rest"`
	Currencies    []Currency `json:"currencies" toml:"currencies" yaml:"currencies"`
	FeeCurrencies []Currency `json:"feeCurrencies,omitempty" toml:"fee_currencies" yaml:"fee_currencies"`
}

// CoinPrimitive is a denom with an integer amount in minimal units
type CoinPrimitive struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}
