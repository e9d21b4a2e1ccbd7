package config

import "github.com/Cogwheel-Validator/spectra-swap/quoter/models"

// RPCQuoterConfig is the configuration of the quote service
type RPCQuoterConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Chain the pools are read from
	ChainID string `toml:"chain_id" mapstructure:"chain_id"`
	// LCD endpoints, the first one is the primary
	LcdURLs []string `toml:"lcd_urls" mapstructure:"lcd_urls"`
	// StaticPools serves only the pools of the chain config file
	StaticPools bool `toml:"static_pools" mapstructure:"static_pools"`

	// cache configs
	PoolRefreshSeconds int `toml:"pool_refresh_seconds" mapstructure:"pool_refresh_seconds"`
	BalanceTTLSeconds  int `toml:"balance_ttl_seconds" mapstructure:"balance_ttl_seconds"`
	SessionTTLSeconds  int `toml:"session_ttl_seconds" mapstructure:"session_ttl_seconds"`
	MaxRoutes          int `toml:"max_routes" mapstructure:"max_routes"`
}

// ChainsFile is the on disk layout of the chain config
type ChainsFile struct {
	Chains []models.ChainInfo `json:"chains" toml:"chains" yaml:"chains"`
	Pools  []StaticPool       `json:"pools" toml:"pools" yaml:"pools"`
}

// StaticPool is a weighted pool declared in the chain config
type StaticPool struct {
	ID      string            `json:"id" toml:"id" yaml:"id"`
	SwapFee string            `json:"swapFee" toml:"swap_fee" yaml:"swap_fee"`
	Assets  []StaticPoolAsset `json:"assets" toml:"assets" yaml:"assets"`
}

type StaticPoolAsset struct {
	Denom  string `json:"denom" toml:"denom" yaml:"denom"`
	Amount string `json:"amount" toml:"amount" yaml:"amount"`
	Weight string `json:"weight" toml:"weight" yaml:"weight"`
}
