package lcdquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "lcd").Logger()
}

// healthPath is probed to decide whether an endpoint is usable
const healthPath = "/cosmos/base/tendermint/v1beta1/node_info"

// LcdQueryClient queries a Cosmos SDK REST (LCD) endpoint.
// It keeps a primary endpoint and switches to backups while the primary is down.
type LcdQueryClient struct {
	httpClient     *http.Client
	primaryURL     string
	backupURLs     []string
	currentURL     string
	mu             sync.RWMutex
	healthChecker  *healthChecker
	failoverConfig FailoverConfig
}

// FailoverConfig controls retries and failover
type FailoverConfig struct {
	// MaxRetries is the number of retries on the current endpoint before failing over
	MaxRetries int
	// RetryDelay is the delay before the first retry, doubled on each retry
	RetryDelay time.Duration
	// HealthCheckInterval is how often the primary endpoint is probed while on a backup
	HealthCheckInterval time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PageLimit is the pagination.limit sent on paged queries
	PageLimit int
}

// DefaultFailoverConfig returns the defaults used by NewLcdQueryClient
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		Timeout:             10 * time.Second,
		PageLimit:           500,
	}
}

type healthChecker struct {
	client    *LcdQueryClient
	stopCh    chan struct{}
	stoppedCh chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// NewLcdQueryClient creates a client for a single endpoint
func NewLcdQueryClient(apiURL string) (*LcdQueryClient, error) {
	return NewLcdQueryClientWithFailover(apiURL, nil, DefaultFailoverConfig())
}

// NewLcdQueryClientWithFailover creates a client with backup endpoints.
// The health checker only runs when there is at least one valid backup; call Close to stop it.
func NewLcdQueryClientWithFailover(primaryURL string, backupURLs []string, config FailoverConfig) (*LcdQueryClient, error) {
	if err := validateURL(primaryURL); err != nil {
		return nil, fmt.Errorf("invalid primary url %q: %w", primaryURL, err)
	}

	validBackups := make([]string, 0, len(backupURLs))
	for _, u := range backupURLs {
		if err := validateURL(u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		validBackups = append(validBackups, strings.TrimRight(u, "/"))
	}
	if config.PageLimit <= 0 {
		config.PageLimit = DefaultFailoverConfig().PageLimit
	}

	client := &LcdQueryClient{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		primaryURL:     strings.TrimRight(primaryURL, "/"),
		backupURLs:     validBackups,
		currentURL:     strings.TrimRight(primaryURL, "/"),
		failoverConfig: config,
	}

	if len(validBackups) > 0 && config.HealthCheckInterval > 0 {
		client.startHealthChecker()
	}

	log.Info().
		Str("primary", client.primaryURL).
		Int("backups", len(validBackups)).
		Msg("LCD client initialized")
	return client, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}

func (c *LcdQueryClient) startHealthChecker() {
	c.healthChecker = &healthChecker{
		client:    c,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	c.healthChecker.start()
}

func (h *healthChecker) start() {
	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = true
	h.mu.Unlock()

	go func() {
		defer close(h.stoppedCh)
		ticker := time.NewTicker(h.client.failoverConfig.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
				h.checkAndRestore()
			}
		}
	}()
}

func (h *healthChecker) stop() {
	h.mu.Lock()
	if !h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = false
	h.mu.Unlock()

	close(h.stopCh)
	<-h.stoppedCh
}

// checkAndRestore moves back to the primary endpoint once it is healthy again
func (h *healthChecker) checkAndRestore() {
	current := h.client.CurrentURL()
	if current == h.client.primaryURL {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.client.failoverConfig.Timeout)
	defer cancel()
	if h.client.isEndpointHealthy(ctx, h.client.primaryURL) {
		h.client.mu.Lock()
		h.client.currentURL = h.client.primaryURL
		h.client.mu.Unlock()
		log.Info().Str("url", h.client.primaryURL).Msg("Restored primary endpoint")
	}
}

func (c *LcdQueryClient) isEndpointHealthy(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", endpoint).Msg("Health check failed")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// CurrentURL returns the endpoint requests are sent to
func (c *LcdQueryClient) CurrentURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// failover switches to the next healthy endpoint, primary included
func (c *LcdQueryClient) failover(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	allURLs := append([]string{c.primaryURL}, c.backupURLs...)
	currentIdx := 0
	for i, u := range allURLs {
		if u == c.currentURL {
			currentIdx = i
			break
		}
	}

	for i := 1; i < len(allURLs); i++ {
		next := allURLs[(currentIdx+i)%len(allURLs)]
		if next == c.currentURL {
			continue
		}
		if c.isEndpointHealthy(ctx, next) {
			c.currentURL = next
			log.Info().Str("url", next).Msg("Failover to endpoint")
			return true
		}
	}

	log.Warn().Str("url", c.currentURL).Msg("All endpoints unhealthy, staying on current")
	return false
}

// Close stops the health checker
func (c *LcdQueryClient) Close() {
	if c.healthChecker != nil {
		c.healthChecker.stop()
	}
}

// get performs a GET with retries on the current endpoint and a single attempt after failover
func (c *LcdQueryClient) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	retryDelay := c.failoverConfig.RetryDelay

	for attempt := 0; attempt <= c.failoverConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		body, err := c.fetch(ctx, c.CurrentURL()+path)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	if len(c.backupURLs) > 0 && c.failover(ctx) {
		body, err := c.fetch(ctx, c.CurrentURL()+path)
		if err != nil {
			return nil, fmt.Errorf("failover request failed: %w (original: %w)", err, lastErr)
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.failoverConfig.MaxRetries+1, lastErr)
}

// StatusError is returned for non 200 responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (c *LcdQueryClient) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
