package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// OTelConfig selects the OpenTelemetry signals and where they are exported
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // deployment.environment.name on every signal

	// Traces
	EnableTracing bool
	UseOTLPTraces bool   // OTLP over HTTP (Jaeger, Tempo)
	OTLPTracesURL string // host:port of the collector

	// Metrics
	EnableMetrics  bool
	UsePrometheus  bool // served next to the quoter metrics on /server/metrics
	UseOTLPMetrics bool // pushed on a periodic reader
	OTLPMetricsURL string

	// Logs
	EnableLogs  bool // zerolog stays the application log either way
	UseOTLPLogs bool
	OTLPLogsURL string

	// InsecureOTLP sends OTLP over plain HTTP. Local development only.
	InsecureOTLP bool

	// Client side TLS for the OTLP exporters, unrelated to the server certificate
	OTLPClientCertFile string // mTLS certificate
	OTLPClientKeyFile  string // mTLS key
	OTLPCACertFile     string // CA that signed the collector certificate

	// DevelopmentMode swaps every exporter for its stdout variant
	DevelopmentMode bool
}

// DefaultOTelConfig returns the config used when the service config sets nothing
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "spectra-swap-quoter",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		EnableTracing:  false,
		UseOTLPTraces:  true,
		OTLPTracesURL:  "localhost:4318",
		EnableMetrics:  false,
		UsePrometheus:  true,
		OTLPMetricsURL: "localhost:4318",
		OTLPLogsURL:    "localhost:4318",
	}
}

// enabled reports whether any signal is switched on
func (c *OTelConfig) enabled() bool {
	return c != nil && (c.EnableTracing || c.EnableMetrics || c.EnableLogs)
}

// NewOTelSDK installs the global tracer, meter and logger providers.
// The returned shutdown func flushes and stops all of them.
func NewOTelSDK(ctx context.Context, config *OTelConfig) (func(context.Context) error, error) {
	if config == nil {
		config = DefaultOTelConfig()
	}

	// shutdown runs in registration order and is safe to call twice
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	fail := func(err error) (func(context.Context) error, error) {
		return shutdown, errors.Join(err, shutdown(ctx))
	}

	res, err := newResource(config)
	if err != nil {
		return shutdown, fmt.Errorf("failed to create resource: %w", err)
	}

	// W3C trace context plus baggage, so upstream spans carry through otelhttp

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if config.EnableTracing {
		tp, err := newTracerProvider(ctx, res, config)
		if err != nil {
			return fail(err)
		}
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
		otel.SetTracerProvider(tp)
	}

	if config.EnableMetrics {
		mp, err := newMeterProvider(ctx, res, config)
		if err != nil {
			return fail(err)
		}
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	if config.EnableLogs {
		lp, err := newLoggerProvider(ctx, res, config)
		if err != nil {
			return fail(err)
		}
		shutdownFuncs = append(shutdownFuncs, lp.Shutdown)
		global.SetLoggerProvider(lp)
	}

	return shutdown, nil
}

func newResource(config *OTelConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironmentName(config.Environment),
		),
	)
}

// buildTLSConfig returns nil when the exporters run insecure
func buildTLSConfig(config *OTelConfig) (*tls.Config, error) {
	if config.InsecureOTLP {
		return nil, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	// system roots unless a CA file is given

	if config.OTLPCACertFile != "" {
		pem, err := os.ReadFile(config.OTLPCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("failed to append CA certificate")
		}
		tlsConfig.RootCAs = pool
	}

	// mTLS needs both halves of the pair
	if config.OTLPClientCertFile != "" && config.OTLPClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(config.OTLPClientCertFile, config.OTLPClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter

	switch {
	case config.DevelopmentMode:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		exporter = exp
	case config.UseOTLPTraces:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.OTLPTracesURL)}
		if config.InsecureOTLP {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else {
			tlsConfig, err := buildTLSConfig(config)
			if err != nil {
				return nil, fmt.Errorf("traces: %w", err)
			}
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsConfig))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		exporter = exp
	default:
		// no exporter, spans are created and dropped
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	), nil
}

// newMeterProvider registers the Prometheus reader on the default registerer,
// which /server/metrics gathers from.
func newMeterProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if config.UsePrometheus {
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exp))
	}

	// OTLP push, stdout in development
	if config.UseOTLPMetrics {
		var exporter sdkmetric.Exporter
		interval := 60 * time.Second
		if config.DevelopmentMode {
			exp, err := stdoutmetric.New()
			if err != nil {
				return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
			}
			exporter = exp
			interval = 10 * time.Second
		} else {
			mopts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.OTLPMetricsURL)}
			if config.InsecureOTLP {
				mopts = append(mopts, otlpmetrichttp.WithInsecure())
			} else {
				tlsConfig, err := buildTLSConfig(config)
				if err != nil {
					return nil, fmt.Errorf("metrics: %w", err)
				}
				mopts = append(mopts, otlpmetrichttp.WithTLSClientConfig(tlsConfig))
			}
			exp, err := otlpmetrichttp.New(ctx, mopts...)
			if err != nil {
				return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
			}
			exporter = exp
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))))
	}

	return sdkmetric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*sdklog.LoggerProvider, error) {
	var exporter sdklog.Exporter

	switch {
	case config.DevelopmentMode:
		exp, err := stdoutlog.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout log exporter: %w", err)
		}
		exporter = exp
	case config.UseOTLPLogs:
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(config.OTLPLogsURL)}
		if config.InsecureOTLP {
			opts = append(opts, otlploghttp.WithInsecure())
		} else {
			tlsConfig, err := buildTLSConfig(config)
			if err != nil {
				return nil, fmt.Errorf("logs: %w", err)
			}
			opts = append(opts, otlploghttp.WithTLSClientConfig(tlsConfig))
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		exporter = exp
	default:
		// no exporter
		return sdklog.NewLoggerProvider(sdklog.WithResource(res)), nil
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	), nil
}
