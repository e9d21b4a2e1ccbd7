package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/config"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/rpc"
)

const testChainsTOML = `
[[chains]]
chain_id = "osmosis-1"
chain_name = "Osmosis"
bech32_prefix = "osmo"

[[chains.currencies]]
coin_denom = "OSMO"
coin_minimal_denom = "uosmo"
coin_decimals = 6

[[chains.currencies]]
coin_denom = "ATOM"
coin_minimal_denom = "uatom"
coin_decimals = 6

[[chains.currencies]]
coin_denom = "JUNO"
coin_minimal_denom = "ujuno"
coin_decimals = 6

[[pools]]
id = "1"
swap_fee = "0.002"

[[pools.assets]]
denom = "uosmo"
amount = "1000000000000"

[[pools.assets]]
denom = "uatom"
amount = "100000000000"
`

func useChainsFile(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.toml")
	assert.NoError(t, os.WriteFile(path, []byte(testChainsTOML), 0o600))

	prev := chainsPath
	chainsPath = path
	t.Cleanup(func() { chainsPath = prev })
}

func TestNewLogger(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	assert.Equal(t, newLogger("debug").GetLevel(), zerolog.DebugLevel)
	assert.Equal(t, newLogger("WARN").GetLevel(), zerolog.WarnLevel)
	assert.Equal(t, newLogger("nonsense").GetLevel(), zerolog.InfoLevel)
	assert.Equal(t, newLogger("").GetLevel(), zerolog.InfoLevel)
}

func TestBuildServerConfig(t *testing.T) {
	cfg := &config.RPCQuoterConfig{
		Port:                  8080,
		Host:                  "0.0.0.0",
		AllowedOrigins:        []string{"*"},
		RatePerMinute:         120,
		MaxConcurrentRequests: 50,
		UsePrometheus:         true,
		ChainID:               "osmosis-1",
		MaxRoutes:             3,
		SessionTTLSeconds:     60,
	}

	sc := buildServerConfig(cfg)
	assert.Equal(t, sc.Address, "0.0.0.0:8080")
	assert.Equal(t, *sc.RatePerMinute, 120)
	assert.Equal(t, *sc.MaxConcurrentRequests, 50)
	assert.True(t, sc.EnableMetrics)
	assert.Equal(t, sc.ChainID, "osmosis-1")
	assert.Equal(t, sc.MaxRoutes, 3)
	assert.Equal(t, sc.SessionTTL, time.Minute)
	assert.NotNil(t, sc.OTelConfig)
	assert.Equal(t, sc.OTelConfig.ServiceName, "spectra-swap-quoter")
	assert.False(t, sc.OTelConfig.EnableTracing)

	cfg.UsePrometheus = false
	cfg.RatePerMinute = 0
	sc = buildServerConfig(cfg)
	assert.True(t, sc.OTelConfig == nil)
	assert.True(t, sc.RatePerMinute == nil)
}

func TestNewCLIConfig_StaticPools(t *testing.T) {
	useChainsFile(t)

	cfg, err := newCLIConfig(context.Background(), "osmosis-1", "", nil)
	assert.NoError(t, err)

	sendable := cfg.trade.SendableCurrencies()
	assert.Equal(t, len(sendable), 2)
	assert.Equal(t, sendable[0].CoinMinimalDenom, "uosmo")
	assert.Equal(t, sendable[1].CoinMinimalDenom, "uatom")

	in, ok := cfg.registry.FindCurrency("osmosis-1", "uosmo")
	assert.True(t, ok)
	cfg.trade.SetSendCurrency(&in)
	cfg.trade.SetAmount("10")

	resp, err := rpc.NewQuoteResponse(cfg.trade)
	assert.NoError(t, err)
	assert.Equal(t, resp.OutCurrency.CoinMinimalDenom, "uatom")
	assert.Equal(t, len(resp.Routes), 1)
	assert.Equal(t, resp.AmountPrimitive, models.CoinPrimitive{Denom: "uosmo", Amount: "10000000"})
}

func TestNewCLIConfig_UnknownChain(t *testing.T) {
	useChainsFile(t)

	_, err := newCLIConfig(context.Background(), "unknown-1", "", nil)
	assert.Error(t, err)
}

func TestBalanceFetchers(t *testing.T) {
	chains := []models.ChainInfo{
		{ChainID: "osmosis-1", Rest: []string{"https://lcd.osmosis.zone"}},
		{ChainID: "cosmoshub-4", Rest: []string{"https://lcd.cosmos.network", "https://backup.cosmos.network"}},
		{ChainID: "juno-1"},
		{ChainID: "broken-1", Rest: []string{"ftp://nope"}},
	}

	fetchers, closeAll := balanceFetchers(chains, "osmosis-1", nil)
	defer closeAll()

	assert.Equal(t, len(fetchers), 2)
	_, ok := fetchers["cosmoshub-4"]
	assert.True(t, ok)
	_, ok = fetchers["juno-1"]
	assert.False(t, ok)
}

func TestRunQuote(t *testing.T) {
	useChainsFile(t)

	prevJSON, prevMax := jsonOutput, quoteMax
	t.Cleanup(func() { jsonOutput, quoteMax = prevJSON, prevMax })
	jsonOutput, quoteMax = true, false
	quoteCmd.SetContext(context.Background())

	assert.NoError(t, runQuote(quoteCmd, []string{"10", "uosmo", "uatom"}))

	err := runQuote(quoteCmd, []string{"10", "uosmo", "ibc/unknown"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ibc/unknown"))

	err = runQuote(quoteCmd, []string{"10", "ufoo", "uatom"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ufoo"))

	// an unparseable amount is reported after the quote is printed
	assert.Error(t, runQuote(quoteCmd, []string{"1e9", "uosmo", "uatom"}))
}
