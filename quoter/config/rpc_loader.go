package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadRPCQuoterConfig
const EnvPrefix = "QUOTER"

// keys lists every config key so Unmarshal sees env values when no file is loaded
var keys = []string{
	"port", "host", "allowed_origins",
	"rate_per_minute", "max_concurrent_requests",
	"service_name", "service_version", "environment",
	"enable_tracing", "use_otlp_traces", "otlp_traces_url",
	"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
	"enable_logs", "use_otlp_logs", "otlp_logs_url",
	"insecure_otlp", "development_mode",
	"chain_id", "lcd_urls", "static_pools",
	"pool_refresh_seconds", "balance_ttl_seconds", "session_ttl_seconds", "max_routes",
}

// LoadRPCQuoterConfig loads the service config from a TOML file, or from
// QUOTER_* environment variables when configPath is nil.
func LoadRPCQuoterConfig(configPath *string) (*RPCQuoterConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}

	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain_id", "osmosis-1")
	v.SetDefault("pool_refresh_seconds", 30)
	v.SetDefault("balance_ttl_seconds", 15)
	v.SetDefault("session_ttl_seconds", 900)
	v.SetDefault("max_routes", 5)
	v.SetDefault("max_concurrent_requests", 200)
}

func loadEnv(v *viper.Viper) (*RPCQuoterConfig, error) {
	// .env is optional, env can come from docker, systemd and the like
	_ = godotenv.Load()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var config RPCQuoterConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

func loadFile(v *viper.Viper, configPath string) (*RPCQuoterConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config RPCQuoterConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyConfig(config *RPCQuoterConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if config.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	if len(config.LcdURLs) == 0 && !config.StaticPools {
		return fmt.Errorf("lcd_urls is required unless static_pools is set")
	}

	for _, u := range config.LcdURLs {
		if u == "" {
			return fmt.Errorf("lcd_urls must not be empty")
		}
		parsed, err := url.Parse(u)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("lcd url %q is not a valid url", u)
		}
	}

	if config.PoolRefreshSeconds <= 0 || config.BalanceTTLSeconds <= 0 || config.SessionTTLSeconds <= 0 {
		return fmt.Errorf("pool_refresh_seconds, balance_ttl_seconds and session_ttl_seconds must be positive")
	}

	if config.MaxRoutes <= 0 {
		return fmt.Errorf("max_routes must be positive")
	}

	return nil
}
