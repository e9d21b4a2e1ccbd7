// Package rpc serves swap quotes over HTTP/JSON.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/tradein"
)

var Logger zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Logger = zerolog.New(out).With().Timestamp().Str("component", "rpc").Logger()
}

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	Logger = l
}

// ServerConfig holds configuration for the quote server
type ServerConfig struct {
	Address               string
	AllowedOrigins        []string
	EnableMetrics         bool
	RatePerMinute         *int
	MaxConcurrentRequests *int
	OTelConfig            *OTelConfig

	// ChainID is the chain whose pools the server quotes against
	ChainID    string
	MaxRoutes  int
	SessionTTL time.Duration
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() *ServerConfig {
	rateLimit := 0
	maxConcurrentRequests := 200
	return &ServerConfig{
		Address:               "localhost:8080",
		AllowedOrigins:        []string{"http://localhost:3000", "http://localhost:8080"},
		EnableMetrics:         true,
		RatePerMinute:         &rateLimit,
		MaxConcurrentRequests: &maxConcurrentRequests,
		OTelConfig:            DefaultOTelConfig(),
		ChainID:               "osmosis-1",
		MaxRoutes:             tradein.DefaultMaxRoutes,
		SessionTTL:            15 * time.Minute,
	}
}

// Dependencies are the data sources behind the handlers.
// Balances may be nil, in which case balances are never checked.
type Dependencies struct {
	Chains   ChainRegistry
	Pools    PoolSource
	Balances BalanceSource
}

// Server wraps the HTTP server and provides lifecycle management
type Server struct {
	config       *ServerConfig
	httpServer   *http.Server
	mux          *chi.Mux
	handlers     *handlers
	otelShutdown func(context.Context) error
}

// NewServer wires the middleware chain and the routes
func NewServer(ctx context.Context, config *ServerConfig, deps Dependencies) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if deps.Chains == nil || deps.Pools == nil {
		return nil, errors.New("chains and pools are required")
	}
	if config.MaxRoutes <= 0 {
		config.MaxRoutes = tradein.DefaultMaxRoutes
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 15 * time.Minute
	}

	var otelShutdown func(context.Context) error
	if config.OTelConfig.enabled() {
		shutdown, err := NewOTelSDK(ctx, config.OTelConfig)
		if err != nil {
			// the server keeps running without telemetry
			Logger.Error().Err(err).Msg("Failed to initialize OpenTelemetry")
		} else {
			otelShutdown = shutdown
		}
	}

	m := newMetrics()
	h := newHandlers(config, deps, m)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(zerologMiddleware)
	mux.Use(zerologRecoverer)
	mux.Use(middleware.RealIP)
	mux.Use(realIPMiddleware)
	mux.Use(middleware.Compress(5))
	mux.Use(middleware.Timeout(60 * time.Second))

	if config.OTelConfig != nil && config.OTelConfig.EnableTracing {
		mux.Use(otelHTTPMiddleware)
	}
	if config.RatePerMinute != nil && *config.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(*config.RatePerMinute, time.Minute))
	}
	if config.MaxConcurrentRequests != nil && *config.MaxConcurrentRequests > 0 {
		mux.Use(middleware.Throttle(*config.MaxConcurrentRequests))
	}

	metricsEnabled := config.EnableMetrics || (config.OTelConfig != nil && config.OTelConfig.UsePrometheus)
	if metricsEnabled {
		mux.Handle("/server/metrics", m.handler())
	}

	mux.Get("/server/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "quoter"})
	})
	mux.Get("/server/ready", func(w http.ResponseWriter, r *http.Request) {
		if !deps.Pools.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.Route("/v1", func(r chi.Router) {
		r.Use(noCacheMiddleware)
		r.Get("/chains", h.listChains)
		r.Get("/chains/{chainId}/currencies", h.chainCurrencies)
		r.Get("/pools", h.listPools)
		r.Post("/quote", h.quote)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)
				r.Put("/amount", h.setSessionAmount)
				r.Put("/currencies", h.setSessionCurrencies)
				r.Put("/max", h.setSessionMax)
				r.Post("/switch", h.switchSession)
			})
		})
	})

	corsHandler := newCORSHandler(config.AllowedOrigins, mux)

	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           h2c.NewHandler(corsHandler, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	h.sessions.start(time.Minute)

	return &Server{
		config:       config,
		httpServer:   httpServer,
		mux:          mux,
		handlers:     h,
		otelShutdown: otelShutdown,
	}, nil
}

// Handler returns the root handler, including CORS and h2c
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving without TLS
func (s *Server) Start() error {
	s.logServerInfo("http")
	return s.httpServer.ListenAndServe()
}

// StartTLS begins serving with TLS
func (s *Server) StartTLS(certFile, keyFile string) error {
	s.logServerInfo("https")
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) logServerInfo(protocol string) {
	Logger.Info().
		Str("address", s.config.Address).
		Str("protocol", protocol).
		Str("chain_id", s.config.ChainID).
		Msg("Quoter server starting")

	Logger.Info().Msg("Available endpoints:")
	Logger.Info().Msg("\tAPI: /v1/chains, /v1/pools, /v1/quote, /v1/sessions")
	Logger.Info().Msg("\tHealth: /server/health")
	Logger.Info().Msg("\tReady: /server/ready")
	if s.config.EnableMetrics || (s.config.OTelConfig != nil && s.config.OTelConfig.UsePrometheus) {
		Logger.Info().Msg("\tMetrics: /server/metrics")
	}
}

// Shutdown stops the HTTP server, the session sweeper and the telemetry pipeline
func (s *Server) Shutdown(ctx context.Context) error {
	Logger.Info().Msg("Shutting down quoter server...")

	var errs error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		Logger.Error().Err(err).Msg("Error shutting down HTTP server")
		errs = errors.Join(errs, err)
	}

	s.handlers.sessions.close()

	if s.otelShutdown != nil {
		if err := s.otelShutdown(ctx); err != nil {
			Logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
			errs = errors.Join(errs, err)
		}
	}

	Logger.Info().Msg("Server shutdown complete")
	return errs
}
