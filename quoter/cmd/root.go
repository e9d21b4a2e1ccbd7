package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/config"
	lcdquery "github.com/Cogwheel-Validator/spectra-swap/quoter/lcd_query"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/rpc"
)

var log zerolog.Logger

var (
	logLevel     string
	jsonOutput   bool
	chainsPath   string
	chainsSource string
	keplrDir     string
	keplrChains  []string
)

var rootCmd = &cobra.Command{
	Use:   "quoter",
	Short: "Swap quotes over weighted liquidity pools",
	Long: `quoter finds the best split of a swap across the weighted pools of a
Cosmos chain and reports the expected output, prices, fee and slippage.

Examples:
  quoter serve --config-rpc ./rpc-config.toml --chains ./chains.toml
  quoter quote 10 uosmo uatom --lcd https://lcd.osmosis.zone
  quoter currencies osmosis-1`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = newLogger(logLevel)
		rpc.SetLogger(log)
	},
}

func init() {
	log = newLogger("info")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&chainsPath, "chains", "./chains.toml", "Chain and pool config file (.toml, .json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&chainsSource, "chains-source", "", "Remote source of the chain config, downloaded to a temp dir (http, git, s3 ...)")
	rootCmd.PersistentFlags().StringVar(&keplrDir, "keplr-dir", "", "Keplr chain registry directory with extra chains")
	rootCmd.PersistentFlags().StringSliceVar(&keplrChains, "keplr-chains", nil, "Keplr registry entries to add, e.g. juno,stargaze")
}

// newLogger also sets the global level so the package loggers follow the flag
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}

// loadChains reads the chain config, fetching it first when --chains-source is set.
// The format follows the extension of --chains. Keplr entries only add chains
// the config does not have.
func loadChains(ctx context.Context) ([]models.ChainInfo, []pools.Pool, error) {
	path := chainsPath
	if chainsSource != "" {
		dir, err := os.MkdirTemp("", "quoter-chains")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		path = filepath.Join(dir, filepath.Base(chainsPath))
		if err := config.FetchRemoteConfig(ctx, chainsSource, path); err != nil {
			return nil, nil, err
		}
		log.Info().Str("source", chainsSource).Msg("Fetched chain config")
	}

	chains, staticPools, err := config.NewChainConfigLoader().LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	if keplrDir != "" && len(keplrChains) > 0 {
		extra, err := config.LoadKeplrChains(keplrDir, keplrChains)
		if err != nil {
			return nil, nil, err
		}
		chains = config.MergeChains(chains, extra)
	}
	log.Debug().Int("chains", len(chains)).Int("pools", len(staticPools)).Msg("Loaded chain config")
	return chains, staticPools, nil
}

// newLcdClient uses the first url as primary and the rest as backups
func newLcdClient(urls []string) (*lcdquery.LcdQueryClient, error) {
	switch len(urls) {
	case 0:
		return nil, fmt.Errorf("no LCD url configured")
	case 1:
		return lcdquery.NewLcdQueryClient(urls[0])
	default:
		return lcdquery.NewLcdQueryClientWithFailover(urls[0], urls[1:], lcdquery.DefaultFailoverConfig())
	}
}
