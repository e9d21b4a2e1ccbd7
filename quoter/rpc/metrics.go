package rpc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Quote outcomes used as the outcome label of quoter_quotes_total
const (
	outcomeOK         = "ok"
	outcomeEmpty      = "empty"
	outcomeBadRequest = "bad_request"
)

// metrics holds the service collectors on a registry owned by the server,
// so several servers can live in one process.
type metrics struct {
	registry       *prometheus.Registry
	quotes         *prometheus.CounterVec
	routeCompute   prometheus.Histogram
	activeSessions prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_quotes_total",
			Help: "Quotes served, by outcome.",
		}, []string{"outcome"}),
		routeCompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quoter_route_compute_seconds",
			Help:    "Time spent computing optimized routes and the expected swap result.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_active_sessions",
			Help: "Swap sessions currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.quotes,
		m.routeCompute,
		m.activeSessions,
	)
	return m
}

// handler serves the service collectors together with the default registry,
// which carries the Go runtime collectors and the OpenTelemetry exporter
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{m.registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)
}

func (m *metrics) observeQuote(outcome string) {
	m.quotes.WithLabelValues(outcome).Inc()
}
