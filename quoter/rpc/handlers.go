package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/tradein"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

// ChainRegistry resolves the chains the server knows
type ChainRegistry interface {
	tradein.ChainGetter
	Chains() []models.ChainInfo
}

// PoolSource is the current pool snapshot
type PoolSource interface {
	Snapshot() ([]pools.Pool, uint64)
	UpdatedAt() time.Time
	Ready() bool
}

// BalanceSource is a balance cache that can be refreshed per sender
type BalanceSource interface {
	tradein.BalanceQuerier
	EnsureFresh(ctx context.Context, chainID, address string) error
}

type handlers struct {
	chains    ChainRegistry
	pools     PoolSource
	balances  BalanceSource
	chainID   string
	maxRoutes int
	metrics   *metrics
	tracer    trace.Tracer
	sessions  *sessionManager
}

func newHandlers(config *ServerConfig, deps Dependencies, m *metrics) *handlers {
	return &handlers{
		chains:    deps.Chains,
		pools:     deps.Pools,
		balances:  deps.Balances,
		chainID:   config.ChainID,
		maxRoutes: config.MaxRoutes,
		metrics:   m,
		tracer:    otel.Tracer("github.com/Cogwheel-Validator/spectra-swap/quoter/rpc"),
		sessions:  newSessionManager(config.SessionTTL, m.activeSessions),
	}
}

func (h *handlers) listChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chains.Chains())
}

func (h *handlers) chainCurrencies(w http.ResponseWriter, r *http.Request) {
	chain, err := h.chains.GetChain(chi.URLParam(r, "chainId"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	cfg, _ := h.newTradeConfig(chain.ChainID, "", nil)
	sendable := cfg.SendableCurrencies()
	if sendable == nil {
		sendable = []models.Currency{}
	}
	writeJSON(w, http.StatusOK, sendable)
}

func (h *handlers) listPools(w http.ResponseWriter, r *http.Request) {
	poolList, version := h.pools.Snapshot()
	resp := models.PoolsResponse{
		ChainID:   h.chainID,
		Version:   version,
		UpdatedAt: h.pools.UpdatedAt(),
		Pools:     make([]models.PoolView, 0, len(poolList)),
	}
	for _, p := range poolList {
		resp.Pools = append(resp.Pools, poolView(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if !h.pools.Ready() {
		writeError(w, http.StatusServiceUnavailable, "pools are not loaded yet")
		return
	}

	chain, err := h.resolveChain(req.ChainID)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	if err := validateBech32Address(req.Sender, chain.Bech32Prefix); err != nil {
		h.badRequest(w, err)
		return
	}
	in, err := validateDenom(chain, "tokenInDenom", req.TokenInDenom)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	out, err := validateDenom(chain, "tokenOutDenom", req.TokenOutDenom)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	h.refreshBalance(r.Context(), chain.ChainID, req.Sender)

	cfg, _ := h.newTradeConfig(chain.ChainID, req.Sender, req.Fee)
	cfg.SetSendCurrency(&in)
	cfg.SetOutCurrency(&out)
	if req.IsMax {
		cfg.SetIsMax(true)
	} else {
		cfg.SetAmount(req.Amount)
	}

	writeJSON(w, http.StatusOK, h.buildQuote(r.Context(), cfg))
}

// resolveChain defaults an empty id to the quoted chain
func (h *handlers) resolveChain(chainID string) (models.ChainInfo, error) {
	if chainID == "" {
		chainID = h.chainID
	}
	return h.chains.GetChain(chainID)
}

// newTradeConfig builds a config on the current snapshot and returns the
// snapshot version. Chains other than the quoted one have no pools.
func (h *handlers) newTradeConfig(chainID, sender string, fee *models.CoinPrimitive) (*tradein.Config, uint64) {
	var (
		poolList []pools.Pool
		version  uint64
	)
	if chainID == h.chainID {
		poolList, version = h.pools.Snapshot()
	}
	var balances tradein.BalanceQuerier
	if h.balances != nil {
		balances = h.balances
	}
	var feeConfig tradein.FeeConfig
	if fee != nil {
		feeConfig = tradein.StaticFee(*fee)
	}
	cfg := tradein.NewConfig(h.chains, balances, chainID, sender, feeConfig, poolList,
		tradein.WithMaxRoutes(h.maxRoutes),
		tradein.WithLogger(Logger),
	)
	return cfg, version
}

// refreshBalance keeps serving the cached balance when the refresh fails
func (h *handlers) refreshBalance(ctx context.Context, chainID, sender string) {
	if h.balances == nil || sender == "" {
		return
	}
	if err := h.balances.EnsureFresh(ctx, chainID, sender); err != nil {
		Logger.Warn().Err(err).Str("chain_id", chainID).Str("sender", sender).Msg("Balance refresh failed")
	}
}

// NewQuoteResponse evaluates cfg. The returned error is the quote error, which
// the response also carries as ErrorKind and ErrorMessage.
func NewQuoteResponse(cfg *tradein.Config) (models.QuoteResponse, error) {
	quoteErr := cfg.Error()
	paths := cfg.OptimizedRoutePaths()

	resp := models.QuoteResponse{
		SendCurrency:    cfg.SendCurrency(),
		OutCurrency:     cfg.OutCurrency(),
		Amount:          cfg.Amount(),
		AmountPrimitive: cfg.AmountPrimitive(),
		IsMax:           cfg.IsMax(),
		Result:          swapResultView(cfg.ExpectedSwapResult()),
		Routes:          make([]models.RouteView, 0, len(paths)),
	}
	for _, p := range paths {
		resp.Routes = append(resp.Routes, routeView(p))
	}
	if quoteErr != nil {
		resp.ErrorKind = errorKind(quoteErr)
		resp.ErrorMessage = quoteErr.Error()
	}
	return resp, quoteErr
}

// buildQuote evaluates cfg inside a span and records the outcome
func (h *handlers) buildQuote(ctx context.Context, cfg *tradein.Config) models.QuoteResponse {
	_, span := h.tracer.Start(ctx, "tradein.quote", trace.WithAttributes(
		attribute.String("chain_id", cfg.ChainID()),
	))
	defer span.End()

	start := time.Now()
	resp, quoteErr := NewQuoteResponse(cfg)
	h.metrics.routeCompute.Observe(time.Since(start).Seconds())

	outcome := outcomeOK
	switch {
	case quoteErr != nil:
		outcome = resp.ErrorKind
		span.RecordError(quoteErr)
		span.SetStatus(codes.Error, outcome)
	case len(resp.Routes) == 0:
		outcome = outcomeEmpty
	}
	span.SetAttributes(
		attribute.String("token_in", resp.SendCurrency.CoinMinimalDenom),
		attribute.String("token_out", resp.OutCurrency.CoinMinimalDenom),
		attribute.String("amount", resp.AmountPrimitive.Amount),
		attribute.Int("routes", len(resp.Routes)),
		attribute.String("outcome", outcome),
	)
	h.metrics.observeQuote(outcome)

	return resp
}

func (h *handlers) badRequest(w http.ResponseWriter, err error) {
	h.metrics.observeQuote(outcomeBadRequest)
	writeError(w, http.StatusBadRequest, err.Error())
}

func errorKind(err error) string {
	var routeErr *tradein.RouteError
	switch {
	case errors.Is(err, tradein.ErrInsufficientAmount):
		return models.ErrorKindInsufficientAmount
	case errors.Is(err, tradein.ErrInvalidNumberAmount):
		return models.ErrorKindInvalidAmount
	case errors.As(err, &routeErr):
		return models.ErrorKindRouting
	default:
		return models.ErrorKindOther
	}
}

func swapResultView(r tradein.SwapResult) models.SwapResultView {
	return models.SwapResultView{
		Amount: r.DisplayAmount().String(),
		AmountPrimitive: models.CoinPrimitive{
			Denom:  r.Currency.CoinMinimalDenom,
			Amount: r.Amount.String(),
		},
		BeforeSpotPriceWithoutSwapFeeInOverOut: r.BeforeSpotPriceWithoutSwapFeeInOverOut.String(),
		BeforeSpotPriceWithoutSwapFeeOutOverIn: r.BeforeSpotPriceWithoutSwapFeeOutOverIn.String(),
		BeforeSpotPriceInOverOut:               r.BeforeSpotPriceInOverOut.String(),
		BeforeSpotPriceOutOverIn:               r.BeforeSpotPriceOutOverIn.String(),
		AfterSpotPriceInOverOut:                r.AfterSpotPriceInOverOut.String(),
		AfterSpotPriceOutOverIn:                r.AfterSpotPriceOutOverIn.String(),
		EffectivePriceInOverOut:                r.EffectivePriceInOverOut.String(),
		EffectivePriceOutOverIn:                r.EffectivePriceOutOverIn.String(),
		SwapFee:                                r.SwapFee.String(),
		Slippage:                               r.Slippage.String(),
	}
}

func routeView(p pools.RoutePathWithAmount) models.RouteView {
	outs := make([]string, len(p.TokenOutDenoms))
	copy(outs, p.TokenOutDenoms)
	return models.RouteView{
		PoolIDs:        p.PoolIDs(),
		TokenInDenom:   p.TokenInDenom,
		TokenOutDenoms: outs,
		Amount:         p.Amount.String(),
	}
}

func poolView(p pools.Pool) models.PoolView {
	assets := p.PoolAssets()
	view := models.PoolView{
		ID:      p.ID(),
		SwapFee: p.SwapFee().String(),
		Assets:  make([]models.PoolAssetView, 0, len(assets)),
	}
	for _, a := range assets {
		view.Assets = append(view.Assets, models.PoolAssetView{
			Denom:  a.Denom,
			Amount: a.Amount.String(),
			Weight: a.Weight.String(),
		})
	}
	return view
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
