// Package tradein holds the state of a swap form: the pools, the selected
// currencies, the amount typed in and the last error. Derived values such as
// the optimized routes and the expected swap result are computed on read and
// memoized until one of the inputs changes.
package tradein

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
)

// DefaultMaxRoutes is the number of routes a swap may be split across
const DefaultMaxRoutes = 5

// switchMaxDecimals is the precision of the amount carried over by SwitchInAndOut
const switchMaxDecimals int32 = 6

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "tradein").Logger()
}

// Option configures a Config
type Option func(*Config)

// WithMaxRoutes sets how many routes a swap may be split across. Values below 1 are ignored.
func WithMaxRoutes(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxRoutes = n
		}
	}
}

// WithLogger replaces the package logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.log = l
	}
}

// routeCache is the memoized result of the last route computation
type routeCache struct {
	version uint64
	amount  models.CoinPrimitive
	outDen  string
	paths   []pools.RoutePathWithAmount
}

// Config is the token-in side of a swap. It is safe for concurrent use.
type Config struct {
	mu sync.Mutex

	chainGetter ChainGetter
	balances    BalanceQuerier
	feeConfig   FeeConfig
	chainID     string
	sender      string
	maxRoutes   int
	log         zerolog.Logger

	pools  []pools.Pool
	router *pools.OptimizedRoutes

	inDenom  string
	outDenom string
	amount   string
	isMax    bool
	err      error

	// version is bumped by every setter and invalidates the route cache
	version uint64
	cache   *routeCache
}

// NewConfig creates a Config. balances and feeConfig may be nil.
func NewConfig(
	chainGetter ChainGetter,
	balances BalanceQuerier,
	chainID string,
	sender string,
	feeConfig FeeConfig,
	poolList []pools.Pool,
	opts ...Option,
) *Config {
	c := &Config{
		chainGetter: chainGetter,
		balances:    balances,
		feeConfig:   feeConfig,
		chainID:     chainID,
		sender:      sender,
		maxRoutes:   DefaultMaxRoutes,
		log:         log,
		pools:       poolList,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChainID returns the chain the swap happens on
func (c *Config) ChainID() string {
	return c.chainID
}

// Sender returns the address whose balance is checked
func (c *Config) Sender() string {
	return c.sender
}

// SetPools replaces the pool list
func (c *Config) SetPools(poolList []pools.Pool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = poolList
	c.router = nil
	c.version++
}

// Pools returns the current pool list
func (c *Config) Pools() []pools.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pools
}

// SetSendCurrency selects the currency to send, nil clears the selection
func (c *Config) SetSendCurrency(currency *models.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inDenom = ""
	if currency != nil {
		c.inDenom = currency.CoinMinimalDenom
	}
	c.version++
}

// SetOutCurrency selects the currency to receive, nil clears the selection
func (c *Config) SetOutCurrency(currency *models.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outDenom = ""
	if currency != nil {
		c.outDenom = currency.CoinMinimalDenom
	}
	c.version++
}

// SendCurrency returns the selected currency to send.
// Without any sendable currency it returns models.UnknownCurrency, and when the
// selection is not sendable it falls back to the first sendable currency.
func (c *Config) SendCurrency() models.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCurrencyLocked(c.sendableLocked())
}

// OutCurrency returns the selected currency to receive.
// With fewer than two sendable currencies it returns models.UnknownCurrency, and when
// the selection is not sendable it falls back to the second sendable currency.
func (c *Config) OutCurrency() models.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outCurrencyLocked(c.sendableLocked())
}

// SendableCurrencies returns the chain currencies, in chain order, that appear
// in at least one pool.
func (c *Config) SendableCurrencies() []models.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendableLocked()
}

// SetAmount sets the amount in display units and turns max off
func (c *Config) SetAmount(amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amount = amount
	c.isMax = false
	c.version++
}

// Amount returns the amount in display units. While max is on it is derived
// from the cached balance.
func (c *Config) Amount() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amountLocked(c.sendCurrencyLocked(c.sendableLocked()))
}

// SetIsMax toggles sending the whole balance
func (c *Config) SetIsMax(isMax bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isMax = isMax
	c.version++
}

// IsMax reports whether the whole balance is sent
func (c *Config) IsMax() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isMax
}

// AmountPrimitive returns the amount in minimal units of the send currency.
// Empty or invalid amounts are reported as "0".
func (c *Config) AmountPrimitive() models.CoinPrimitive {
	c.mu.Lock()
	defer c.mu.Unlock()
	send := c.sendCurrencyLocked(c.sendableLocked())
	return c.amountPrimitiveLocked(send)
}

// SwitchInAndOut swaps the send and out currencies. The amount becomes the
// expected output, truncated to 6 decimals, so repeated switching shrinks it.
func (c *Config) SwitchInAndOut() {
	c.mu.Lock()
	defer c.mu.Unlock()

	sendable := c.sendableLocked()
	send := c.sendCurrencyLocked(sendable)
	out := c.outCurrencyLocked(sendable)

	result := c.expectedSwapResultLocked(send, out)
	if result.Amount.IsZero() {
		c.amount = ""
	} else {
		c.amount = result.DisplayAmount().Truncate(switchMaxDecimals).String()
	}
	c.isMax = false

	c.inDenom = out.CoinMinimalDenom
	c.outDenom = send.CoinMinimalDenom
	c.version++
}

// OptimizedRoutePaths returns the routes the current amount is split across.
// It returns an empty list for a non positive amount, an unresolved currency or a
// routing failure. A routing failure is kept as the error.
func (c *Config) OptimizedRoutePaths() []pools.RoutePathWithAmount {
	c.mu.Lock()
	defer c.mu.Unlock()

	sendable := c.sendableLocked()
	paths := c.routePathsLocked(c.sendCurrencyLocked(sendable), c.outCurrencyLocked(sendable))
	out := make([]pools.RoutePathWithAmount, len(paths))
	copy(out, paths)
	return out
}

// ExpectedSwapResult simulates the swap along the optimized routes
func (c *Config) ExpectedSwapResult() SwapResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	sendable := c.sendableLocked()
	return c.expectedSwapResultLocked(c.sendCurrencyLocked(sendable), c.outCurrencyLocked(sendable))
}

// Error returns the current validation or routing error.
// ErrInvalidNumberAmount and ErrInsufficientAmount take precedence over a routing error.
func (c *Config) Error() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sendable := c.sendableLocked()
	send := c.sendCurrencyLocked(sendable)
	_ = c.routePathsLocked(send, c.outCurrencyLocked(sendable))

	amount := strings.TrimSpace(c.amountLocked(send))
	if amount != "" {
		dec, err := parseAmount(amount)
		if err != nil {
			return err
		}
		if c.balances != nil && !send.IsUnknown() {
			balance := c.balances.Balance(c.chainID, c.sender, send.CoinMinimalDenom)
			if dec.GreaterThan(balance.Shift(-int32(send.CoinDecimals))) {
				return ErrInsufficientAmount
			}
		}
	}

	return c.err
}

// SetError overrides the routing error until the next route computation
func (c *Config) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Config) sendableLocked() []models.Currency {
	if len(c.pools) == 0 {
		return nil
	}

	chain, err := c.chainGetter.GetChain(c.chainID)
	if err != nil {
		c.log.Debug().Err(err).Str("chain_id", c.chainID).Msg("Chain lookup failed")
		return nil
	}

	poolDenoms := make(map[string]bool)
	for _, pool := range c.pools {
		for _, asset := range pool.PoolAssets() {
			poolDenoms[asset.Denom] = true
		}
	}

	seen := make(map[string]bool, len(chain.Currencies))
	sendable := make([]models.Currency, 0, len(chain.Currencies))
	for _, currency := range chain.Currencies {
		if !poolDenoms[currency.CoinMinimalDenom] || seen[currency.CoinMinimalDenom] {
			continue
		}
		seen[currency.CoinMinimalDenom] = true
		sendable = append(sendable, currency)
	}
	return sendable
}

func (c *Config) sendCurrencyLocked(sendable []models.Currency) models.Currency {
	if len(sendable) == 0 {
		return models.UnknownCurrency
	}
	if currency, ok := findCurrency(sendable, c.inDenom); ok {
		return currency
	}
	return sendable[0]
}

func (c *Config) outCurrencyLocked(sendable []models.Currency) models.Currency {
	if len(sendable) <= 1 {
		return models.UnknownCurrency
	}
	if currency, ok := findCurrency(sendable, c.outDenom); ok {
		return currency
	}
	return sendable[1]
}

func findCurrency(currencies []models.Currency, denom string) (models.Currency, bool) {
	if denom == "" {
		return models.Currency{}, false
	}
	for _, currency := range currencies {
		if currency.CoinMinimalDenom == denom {
			return currency, true
		}
	}
	return models.Currency{}, false
}

func (c *Config) amountLocked(send models.Currency) string {
	if !c.isMax {
		return c.amount
	}
	if c.balances == nil || send.IsUnknown() {
		return ""
	}

	balance := c.balances.Balance(c.chainID, c.sender, send.CoinMinimalDenom)
	if c.feeConfig != nil {
		fee := c.feeConfig.Fee()
		if fee.Denom == send.CoinMinimalDenom {
			feeAmount, err := decimal.NewFromString(fee.Amount)
			if err == nil {
				balance = balance.Sub(feeAmount)
			}
		}
	}
	if !balance.IsPositive() {
		return "0"
	}
	return balance.Shift(-int32(send.CoinDecimals)).String()
}

func (c *Config) amountPrimitiveLocked(send models.Currency) models.CoinPrimitive {
	primitive := models.CoinPrimitive{Denom: send.CoinMinimalDenom, Amount: "0"}

	amount := strings.TrimSpace(c.amountLocked(send))
	if amount == "" {
		return primitive
	}
	dec, err := parseAmount(amount)
	if err != nil {
		return primitive
	}
	primitive.Amount = dec.Shift(int32(send.CoinDecimals)).Truncate(0).String()
	return primitive
}

// maxAmountDigits bounds the digits of a display amount, integer and fraction combined
const maxAmountDigits = 64

var amountPattern = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)

// parseAmount accepts plain decimal notation only. Exponents and signs are rejected.
func parseAmount(amount string) (decimal.Decimal, error) {
	if !amountPattern.MatchString(amount) || len(strings.Replace(amount, ".", "", 1)) > maxAmountDigits {
		return decimal.Decimal{}, ErrInvalidNumberAmount
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidNumberAmount
	}
	return dec, nil
}

func (c *Config) routerLocked() *pools.OptimizedRoutes {
	if c.router == nil {
		c.router = pools.NewOptimizedRoutes(c.pools)
	}
	return c.router
}

func (c *Config) routePathsLocked(send, out models.Currency) []pools.RoutePathWithAmount {
	amount := c.amountPrimitiveLocked(send)
	if c.cache != nil &&
		c.cache.version == c.version &&
		c.cache.amount == amount &&
		c.cache.outDen == out.CoinMinimalDenom {
		return c.cache.paths
	}

	c.err = nil
	paths := c.computeRoutesLocked(amount, out)
	c.cache = &routeCache{
		version: c.version,
		amount:  amount,
		outDen:  out.CoinMinimalDenom,
		paths:   paths,
	}
	return paths
}

func (c *Config) computeRoutesLocked(amount models.CoinPrimitive, out models.Currency) []pools.RoutePathWithAmount {
	amountIn, err := decimal.NewFromString(amount.Amount)
	if err != nil || !amountIn.IsPositive() {
		return []pools.RoutePathWithAmount{}
	}
	if amount.Denom == models.UnknownDenom || out.IsUnknown() {
		return []pools.RoutePathWithAmount{}
	}

	start := time.Now()
	paths, err := c.routerLocked().GetOptimizedRoutesByTokenIn(
		pools.NewCoin(amount.Denom, amountIn),
		out.CoinMinimalDenom,
		c.maxRoutes,
	)
	if err != nil {
		c.err = &RouteError{TokenInDenom: amount.Denom, TokenOutDenom: out.CoinMinimalDenom, Err: err}
		c.log.Debug().
			Err(err).
			Str("token_in", amount.Amount+amount.Denom).
			Str("token_out_denom", out.CoinMinimalDenom).
			Msg("Route optimization failed")
		return []pools.RoutePathWithAmount{}
	}

	c.log.Debug().
		Str("token_in", amount.Amount+amount.Denom).
		Str("token_out_denom", out.CoinMinimalDenom).
		Int("routes", len(paths)).
		Dur("duration", time.Since(start)).
		Msg("Computed optimized routes")
	return paths
}

func (c *Config) expectedSwapResultLocked(send, out models.Currency) SwapResult {
	paths := c.routePathsLocked(send, out)
	if len(paths) == 0 {
		return emptySwapResult(out)
	}

	result, err := c.routerLocked().CalculateTokenOutByTokenIn(paths)
	if err != nil {
		c.err = &RouteError{TokenInDenom: send.CoinMinimalDenom, TokenOutDenom: out.CoinMinimalDenom, Err: err}
		return emptySwapResult(out)
	}
	return newSwapResult(send, out, result)
}
