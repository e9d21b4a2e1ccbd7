package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/config"
	lcdquery "github.com/Cogwheel-Validator/spectra-swap/quoter/lcd_query"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/registry"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/rpc"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/store"
)

var (
	rpcConfigPath string
	configFromEnv bool
	tlsCertFile   string
	tlsKeyFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quote server",
	Long: `Run the HTTP/JSON quote server. Pools are refreshed from the LCD endpoints
of the configured chain, or served from the chain config when static_pools is set.

Examples:
  quoter serve --config-rpc ./rpc-config.toml
  QUOTER_HOST=0.0.0.0 QUOTER_PORT=8080 QUOTER_ALLOWED_ORIGINS=* QUOTER_LCD_URLS=https://lcd.osmosis.zone quoter serve --env`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&rpcConfigPath, "config-rpc", "./rpc-config.toml", "Config file for the quote server")
	serveCmd.Flags().BoolVar(&configFromEnv, "env", false, "Read the server config from QUOTER_* environment variables")
	serveCmd.Flags().StringVar(&tlsCertFile, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&tlsKeyFile, "tls-key", "", "TLS key file")
}

func runServe(cmd *cobra.Command, args []string) error {
	var configPath *string
	if !configFromEnv {
		configPath = &rpcConfigPath
	}
	rpcConfig, err := config.LoadRPCQuoterConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load RPC config: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	chains, staticPools, err := loadChains(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chain config: %w", err)
	}
	reg, err := registry.New(chains)
	if err != nil {
		return err
	}
	if _, err := reg.GetChain(rpcConfig.ChainID); err != nil {
		return fmt.Errorf("chain_id %s is not in the chain config: %w", rpcConfig.ChainID, err)
	}

	log.Info().
		Str("chain_id", rpcConfig.ChainID).
		Int("chains", len(chains)).
		Int("static_pools", len(staticPools)).
		Msg("Starting Spectra's Quoter")

	var poolFetcher store.PoolFetcher
	var lcd *lcdquery.LcdQueryClient
	if !rpcConfig.StaticPools {
		lcd, err = newLcdClient(rpcConfig.LcdURLs)
		if err != nil {
			return err
		}
		defer lcd.Close()
		poolFetcher = lcd
		log.Info().Str("primary", lcd.CurrentURL()).Int("backups", len(rpcConfig.LcdURLs)-1).Msg("LCD client initialized")
	}

	poolStore := store.NewPoolStore(poolFetcher, seconds(rpcConfig.PoolRefreshSeconds), staticPools)
	poolStore.Start(ctx)
	defer poolStore.Close()

	fetchers, closeFetchers := balanceFetchers(chains, rpcConfig.ChainID, lcd)
	defer closeFetchers()
	balances := store.NewBalanceStore(fetchers, seconds(rpcConfig.BalanceTTLSeconds))

	server, err := rpc.NewServer(ctx, buildServerConfig(rpcConfig), rpc.Dependencies{
		Chains:   reg,
		Pools:    poolStore,
		Balances: balances,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tlsCertFile != "" && tlsKeyFile != "" {
			err = server.StartTLS(tlsCertFile, tlsKeyFile)
		} else {
			err = server.Start()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("Server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return errors.Join(serveErr, server.Shutdown(shutdownCtx))
}

// balanceFetchers builds one LCD client per chain with rest endpoints.
// The quoted chain reuses the pool client.
func balanceFetchers(chains []models.ChainInfo, chainID string, lcd *lcdquery.LcdQueryClient) (map[string]store.BalanceFetcher, func()) {
	fetchers := make(map[string]store.BalanceFetcher, len(chains))
	var clients []*lcdquery.LcdQueryClient

	for _, chain := range chains {
		if chain.ChainID == chainID && lcd != nil {
			fetchers[chain.ChainID] = lcd
			continue
		}
		if len(chain.Rest) == 0 {
			continue
		}
		client, err := newLcdClient(chain.Rest)
		if err != nil {
			log.Warn().Err(err).Str("chain_id", chain.ChainID).Msg("Skipping balances for chain")
			continue
		}
		clients = append(clients, client)
		fetchers[chain.ChainID] = client
	}

	return fetchers, func() {
		for _, c := range clients {
			c.Close()
		}
	}
}

// buildServerConfig converts the loaded RPCQuoterConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCQuoterConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
		ChainID:        cfg.ChainID,
		MaxRoutes:      cfg.MaxRoutes,
		SessionTTL:     seconds(cfg.SessionTTLSeconds),
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-swap-quoter"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
