package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/registry"
)

const (
	osmosisID = "osmosis-1"
	hubID     = "cosmoshub-4"
	sender    = "osmo1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5helwsw"
	hubSender = "cosmos1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu"
)

type fakePools struct {
	mu      sync.Mutex
	pools   []pools.Pool
	version uint64
	ready   bool
}

func (f *fakePools) Snapshot() ([]pools.Pool, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pools, f.version
}

func (f *fakePools) UpdatedAt() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (f *fakePools) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakePools) replace(next []pools.Pool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools = next
	f.version++
	f.ready = true
}

type fakeBalances struct {
	mu        sync.Mutex
	amounts   map[string]decimal.Decimal
	refreshes int
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{amounts: make(map[string]decimal.Decimal)}
}

func (f *fakeBalances) Balance(chainID, address, denom string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if amount, ok := f.amounts[chainID+"/"+address+"/"+denom]; ok {
		return amount
	}
	return decimal.Zero
}

func (f *fakeBalances) EnsureFresh(ctx context.Context, chainID, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeBalances) set(denom, amount string) *fakeBalances {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts[osmosisID+"/"+sender+"/"+denom] = decimal.RequireFromString(amount)
	return f
}

func testChains() []models.ChainInfo {
	return []models.ChainInfo{
		{
			ChainID:      osmosisID,
			ChainName:    "Osmosis",
			Bech32Prefix: "osmo",
			Currencies: []models.Currency{
				{CoinDenom: "OSMO", CoinMinimalDenom: "uosmo", CoinDecimals: 6},
				{CoinDenom: "ATOM", CoinMinimalDenom: "uatom", CoinDecimals: 6},
				{CoinDenom: "USDC", CoinMinimalDenom: "uusdc", CoinDecimals: 6},
				{CoinDenom: "JUNO", CoinMinimalDenom: "ujuno", CoinDecimals: 6},
			},
		},
		{
			ChainID:      hubID,
			ChainName:    "Cosmos Hub",
			Bech32Prefix: "cosmos",
			Currencies: []models.Currency{
				{CoinDenom: "ATOM", CoinMinimalDenom: "uatom", CoinDecimals: 6},
			},
		},
	}
}

func weighted(t *testing.T, id string, a, b pools.PoolAsset) pools.Pool {
	t.Helper()
	p, err := pools.NewWeightedPool(id, decimal.RequireFromString("0.002"), []pools.PoolAsset{a, b})
	assert.NoError(t, err)
	return p
}

func asset(denom, amount string) pools.PoolAsset {
	return pools.PoolAsset{Denom: denom, Amount: decimal.RequireFromString(amount), Weight: decimal.NewFromInt(1)}
}

// osmoAtom and usdcJuno are not connected to each other
func testPools(t *testing.T) []pools.Pool {
	return []pools.Pool{
		weighted(t, "1", asset("uosmo", "1000000000000"), asset("uatom", "100000000000")),
		weighted(t, "2", asset("uusdc", "500000000000"), asset("ujuno", "1000000000000")),
	}
}

func newTestServer(t *testing.T, src *fakePools, bal *fakeBalances) *Server {
	t.Helper()
	reg, err := registry.New(testChains())
	assert.NoError(t, err)

	cfg := DefaultServerConfig()
	cfg.OTelConfig = nil
	cfg.ChainID = osmosisID

	srv, err := NewServer(context.Background(), cfg, Dependencies{Chains: reg, Pools: src, Balances: bal})
	assert.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func readyPools(t *testing.T) *fakePools {
	src := &fakePools{}
	src.replace(testPools(t))
	return src
}

// do sends body as JSON, or verbatim when it is a string
func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		assert.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(context.Background(), nil, Dependencies{})
	assert.Error(t, err)
}

func TestHealthAndReady(t *testing.T) {
	src := &fakePools{}
	srv := newTestServer(t, src, newFakeBalances())

	assert.Equal(t, do(t, srv, http.MethodGet, "/server/health", nil).Code, http.StatusOK)
	assert.Equal(t, do(t, srv, http.MethodGet, "/server/ready", nil).Code, http.StatusServiceUnavailable)

	src.replace(testPools(t))
	assert.Equal(t, do(t, srv, http.MethodGet, "/server/ready", nil).Code, http.StatusOK)
}

func TestListChains(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	rec := do(t, srv, http.MethodGet, "/v1/chains", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	chains := decode[[]models.ChainInfo](t, rec)
	assert.Equal(t, len(chains), 2)
	assert.Equal(t, chains[0].ChainID, osmosisID)
}

func TestChainCurrencies(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	rec := do(t, srv, http.MethodGet, "/v1/chains/osmosis-1/currencies", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	currencies := decode[[]models.Currency](t, rec)
	denoms := make([]string, 0, len(currencies))
	for _, c := range currencies {
		denoms = append(denoms, c.CoinMinimalDenom)
	}
	assert.DeepEqual(t, denoms, []string{"uosmo", "uatom", "uusdc", "ujuno"})

	rec = do(t, srv, http.MethodGet, "/v1/chains/cosmoshub-4/currencies", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, len(decode[[]models.Currency](t, rec)), 0)

	rec = do(t, srv, http.MethodGet, "/v1/chains/unknown-1/currencies", nil)
	assert.Equal(t, rec.Code, http.StatusNotFound)
}

func TestListPools(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	rec := do(t, srv, http.MethodGet, "/v1/pools", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	resp := decode[models.PoolsResponse](t, rec)
	assert.Equal(t, resp.ChainID, osmosisID)
	assert.Equal(t, resp.Version, uint64(1))
	assert.Equal(t, len(resp.Pools), 2)
	assert.Equal(t, resp.Pools[0].ID, "1")
	assert.Equal(t, resp.Pools[0].SwapFee, "0.002")
	assert.Equal(t, resp.Pools[0].Assets[0].Denom, "uosmo")
	assert.Equal(t, resp.Pools[0].Assets[0].Amount, "1000000000000")
}

func TestQuote_Success(t *testing.T) {
	bal := newFakeBalances().set("uosmo", "100000000")
	srv := newTestServer(t, readyPools(t), bal)

	rec := do(t, srv, http.MethodPost, "/v1/quote", models.QuoteRequest{
		ChainID:       osmosisID,
		Sender:        sender,
		TokenInDenom:  "uosmo",
		TokenOutDenom: "uatom",
		Amount:        "10",
	})
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Cache-Control"), "no-store, no-cache, must-revalidate")

	resp := decode[models.QuoteResponse](t, rec)
	assert.Equal(t, resp.ErrorKind, "")
	assert.Equal(t, resp.SendCurrency.CoinMinimalDenom, "uosmo")
	assert.Equal(t, resp.OutCurrency.CoinMinimalDenom, "uatom")
	assert.Equal(t, resp.AmountPrimitive, models.CoinPrimitive{Denom: "uosmo", Amount: "10000000"})
	assert.Equal(t, len(resp.Routes), 1)
	assert.DeepEqual(t, resp.Routes[0].PoolIDs, []string{"1"})
	assert.DeepEqual(t, resp.Routes[0].TokenOutDenoms, []string{"uatom"})
	assert.Equal(t, resp.Routes[0].Amount, "10000000")
	assert.Equal(t, resp.Result.AmountPrimitive.Denom, "uatom")

	out := decimal.RequireFromString(resp.Result.AmountPrimitive.Amount)
	assert.True(t, out.IsPositive())
	// roughly one tenth of the input, less fee and slippage
	assert.True(t, out.LessThan(decimal.NewFromInt(1000000)))
	assert.True(t, out.GreaterThan(decimal.NewFromInt(990000)))

	bal.mu.Lock()
	assert.Equal(t, bal.refreshes, 1)
	bal.mu.Unlock()
}

func TestQuote_ErrorKinds(t *testing.T) {
	bal := newFakeBalances().set("uosmo", "100000000").set("uatom", "5000000")
	srv := newTestServer(t, readyPools(t), bal)

	cases := map[string]struct {
		req  models.QuoteRequest
		kind string
	}{
		"insufficient": {
			req:  models.QuoteRequest{Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom", Amount: "1000"},
			kind: models.ErrorKindInsufficientAmount,
		},
		"invalid number": {
			req:  models.QuoteRequest{Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom", Amount: "1.2.3"},
			kind: models.ErrorKindInvalidAmount,
		},
		"exponent": {
			req:  models.QuoteRequest{Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom", Amount: "1e50000000"},
			kind: models.ErrorKindInvalidAmount,
		},
		"no route": {
			req:  models.QuoteRequest{Sender: sender, TokenInDenom: "uatom", TokenOutDenom: "ujuno", Amount: "1"},
			kind: models.ErrorKindRouting,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/v1/quote", tc.req)
			assert.Equal(t, rec.Code, http.StatusOK)
			resp := decode[models.QuoteResponse](t, rec)
			assert.Equal(t, resp.ErrorKind, tc.kind)
			assert.True(t, resp.ErrorMessage != "")
			if tc.kind == models.ErrorKindInvalidAmount {
				assert.Equal(t, resp.AmountPrimitive.Amount, "0")
			}
		})
	}
}

func TestQuote_IsMax(t *testing.T) {
	bal := newFakeBalances().set("uosmo", "10000000")
	srv := newTestServer(t, readyPools(t), bal)

	rec := do(t, srv, http.MethodPost, "/v1/quote", models.QuoteRequest{
		Sender:        sender,
		TokenInDenom:  "uosmo",
		TokenOutDenom: "uatom",
		IsMax:         true,
		Fee:           &models.CoinPrimitive{Denom: "uosmo", Amount: "5000"},
	})
	assert.Equal(t, rec.Code, http.StatusOK)
	resp := decode[models.QuoteResponse](t, rec)
	assert.True(t, resp.IsMax)
	assert.Equal(t, resp.Amount, "9.995")
	assert.Equal(t, resp.ErrorKind, "")
}

func TestQuote_BadRequests(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	cases := map[string]any{
		"malformed body": `{"sender":`,
		"unknown field":  `{"sender":"` + sender + `","bogus":1}`,
		"unknown chain":  models.QuoteRequest{ChainID: "unknown-1", Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom"},
		"bad checksum":   models.QuoteRequest{Sender: sender[:len(sender)-1] + "q", TokenInDenom: "uosmo", TokenOutDenom: "uatom"},
		"wrong prefix":   models.QuoteRequest{Sender: hubSender, TokenInDenom: "uosmo", TokenOutDenom: "uatom"},
		"empty in":       models.QuoteRequest{Sender: sender, TokenOutDenom: "uatom"},
		"empty out":      models.QuoteRequest{Sender: sender, TokenInDenom: "uosmo"},
		"unlisted denom": models.QuoteRequest{Sender: sender, TokenInDenom: "ibc/unknown", TokenOutDenom: "uatom"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/v1/quote", body)
			assert.Equal(t, rec.Code, http.StatusBadRequest)
			assert.True(t, decode[models.ErrorResponse](t, rec).Error != "")
		})
	}
}

func TestQuote_NotReady(t *testing.T) {
	srv := newTestServer(t, &fakePools{}, newFakeBalances())

	rec := do(t, srv, http.MethodPost, "/v1/quote", models.QuoteRequest{
		Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom", Amount: "1",
	})
	assert.Equal(t, rec.Code, http.StatusServiceUnavailable)
}

func TestSessions_Lifecycle(t *testing.T) {
	bal := newFakeBalances().set("uosmo", "100000000").set("uatom", "100000000")
	srv := newTestServer(t, readyPools(t), bal)

	rec := do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{
		Sender:        sender,
		TokenInDenom:  "uosmo",
		TokenOutDenom: "uatom",
	})
	assert.Equal(t, rec.Code, http.StatusCreated)
	created := decode[models.SessionResponse](t, rec)
	assert.True(t, created.ID != "")
	assert.Equal(t, created.ChainID, osmosisID)
	assert.Equal(t, created.Sender, sender)
	assert.Equal(t, len(created.Quote.Routes), 0)
	assert.Equal(t, srv.handlers.sessions.len(), 1)

	base := "/v1/sessions/" + created.ID

	rec = do(t, srv, http.MethodPut, base+"/amount", models.SetAmountRequest{Amount: "10"})
	assert.Equal(t, rec.Code, http.StatusOK)
	quoted := decode[models.SessionResponse](t, rec)
	assert.Equal(t, quoted.Quote.Amount, "10")
	assert.Equal(t, len(quoted.Quote.Routes), 1)

	rec = do(t, srv, http.MethodPost, base+"/switch", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	switched := decode[models.SessionResponse](t, rec)
	assert.Equal(t, switched.Quote.SendCurrency.CoinMinimalDenom, "uatom")
	assert.Equal(t, switched.Quote.OutCurrency.CoinMinimalDenom, "uosmo")
	assert.Equal(t, switched.Quote.Amount, quoted.Quote.Result.Amount)

	rec = do(t, srv, http.MethodPut, base+"/max", models.SetMaxRequest{IsMax: true})
	assert.Equal(t, rec.Code, http.StatusOK)
	maxed := decode[models.SessionResponse](t, rec)
	assert.True(t, maxed.Quote.IsMax)
	assert.Equal(t, maxed.Quote.Amount, "100")

	rec = do(t, srv, http.MethodPut, base+"/currencies", models.SetCurrenciesRequest{TokenInDenom: "uosmo", TokenOutDenom: "uatom"})
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, decode[models.SessionResponse](t, rec).Quote.SendCurrency.CoinMinimalDenom, "uosmo")

	rec = do(t, srv, http.MethodPut, base+"/currencies", models.SetCurrenciesRequest{TokenInDenom: "ibc/unknown"})
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	assert.Equal(t, do(t, srv, http.MethodGet, base, nil).Code, http.StatusOK)
	assert.Equal(t, do(t, srv, http.MethodDelete, base, nil).Code, http.StatusNoContent)
	assert.Equal(t, do(t, srv, http.MethodGet, base, nil).Code, http.StatusNotFound)
	assert.Equal(t, do(t, srv, http.MethodDelete, base, nil).Code, http.StatusNotFound)
	assert.Equal(t, srv.handlers.sessions.len(), 0)
}

func TestSessions_ConcurrentUpdates(t *testing.T) {
	bal := newFakeBalances().set("uosmo", "100000000").set("uatom", "100000000")
	src := readyPools(t)
	srv := newTestServer(t, src, bal)

	rec := do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{
		Sender:        sender,
		TokenInDenom:  "uosmo",
		TokenOutDenom: "uatom",
		Amount:        "1",
	})
	assert.Equal(t, rec.Code, http.StatusCreated)
	base := "/v1/sessions/" + decode[models.SessionResponse](t, rec).ID

	amount, err := json.Marshal(models.SetAmountRequest{Amount: "2"})
	assert.NoError(t, err)
	maxOn, err := json.Marshal(models.SetMaxRequest{IsMax: true})
	assert.NoError(t, err)
	snapshot := testPools(t)

	type call struct {
		method string
		path   string
		body   []byte
	}
	calls := []call{
		{http.MethodPut, base + "/amount", amount},
		{http.MethodPost, base + "/switch", nil},
		{http.MethodGet, base, nil},
		{http.MethodPut, base + "/max", maxOn},
	}

	const workers = 8
	codes := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if w == 0 && i%5 == 0 {
					src.replace(snapshot)
				}
				c := calls[(w+i)%len(calls)]
				var body io.Reader
				if c.body != nil {
					body = bytes.NewReader(c.body)
				}
				req := httptest.NewRequest(c.method, c.path, body)
				req.Header.Set("Content-Type", "application/json")
				rec := httptest.NewRecorder()
				srv.Handler().ServeHTTP(rec, req)
				codes[w] = append(codes[w], rec.Code)
			}
		}(w)
	}
	wg.Wait()

	for _, workerCodes := range codes {
		for _, code := range workerCodes {
			assert.Equal(t, code, http.StatusOK)
		}
	}
	assert.Equal(t, srv.handlers.sessions.len(), 1)
	assert.Equal(t, do(t, srv, http.MethodGet, base, nil).Code, http.StatusOK)
}

func TestSessions_PickUpNewPools(t *testing.T) {
	src := &fakePools{}
	src.replace([]pools.Pool{
		weighted(t, "1", asset("uosmo", "1000000000000"), asset("uatom", "100000000000")),
	})
	srv := newTestServer(t, src, newFakeBalances().set("uosmo", "100000000"))

	rec := do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{
		Sender:        sender,
		TokenInDenom:  "uosmo",
		TokenOutDenom: "uusdc",
		Amount:        "1",
	})
	assert.Equal(t, rec.Code, http.StatusCreated)
	created := decode[models.SessionResponse](t, rec)
	// usdc is not sendable yet, so the out currency falls back
	assert.Equal(t, created.Quote.OutCurrency.CoinMinimalDenom, "uatom")

	src.replace([]pools.Pool{
		weighted(t, "1", asset("uosmo", "1000000000000"), asset("uatom", "100000000000")),
		weighted(t, "7", asset("uosmo", "1000000000000"), asset("uusdc", "500000000000")),
	})

	rec = do(t, srv, http.MethodGet, "/v1/sessions/"+created.ID, nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	resp := decode[models.SessionResponse](t, rec)
	assert.Equal(t, resp.Quote.OutCurrency.CoinMinimalDenom, "uusdc")
	assert.Equal(t, len(resp.Quote.Routes), 1)
	assert.DeepEqual(t, resp.Quote.Routes[0].PoolIDs, []string{"7"})
}

func TestSessions_Expire(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	rec := do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{Sender: sender})
	assert.Equal(t, rec.Code, http.StatusCreated)
	created := decode[models.SessionResponse](t, rec)

	rec = do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{Sender: sender})
	assert.Equal(t, rec.Code, http.StatusCreated)

	m := srv.handlers.sessions
	m.mu.Lock()
	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	m.mu.Unlock()

	assert.Equal(t, do(t, srv, http.MethodGet, "/v1/sessions/"+created.ID, nil).Code, http.StatusNotFound)
	assert.Equal(t, m.sweep(), 1)
	assert.Equal(t, m.len(), 0)
}

func TestSessions_CreateValidation(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances())

	rec := do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{Sender: "osmo1invalid"})
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	rec = do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{Sender: sender, TokenOutDenom: "nope"})
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	rec = do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{ChainID: hubID, Sender: hubSender})
	assert.Equal(t, rec.Code, http.StatusCreated)
	assert.Equal(t, decode[models.SessionResponse](t, rec).Quote.SendCurrency.CoinMinimalDenom, models.UnknownDenom)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, readyPools(t), newFakeBalances().set("uosmo", "100000000"))

	rec := do(t, srv, http.MethodPost, "/v1/quote", models.QuoteRequest{
		Sender: sender, TokenInDenom: "uosmo", TokenOutDenom: "uatom", Amount: "1",
	})
	assert.Equal(t, rec.Code, http.StatusOK)
	do(t, srv, http.MethodPost, "/v1/sessions", models.CreateSessionRequest{Sender: sender})

	rec = do(t, srv, http.MethodGet, "/server/metrics", nil)
	assert.Equal(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `quoter_quotes_total{outcome="ok"} 1`))
	assert.True(t, strings.Contains(body, "quoter_route_compute_seconds_count"))
	assert.True(t, strings.Contains(body, "quoter_active_sessions 1"))
}

func TestRecoverer(t *testing.T) {
	h := zerologRecoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, rec.Code, http.StatusInternalServerError)
	assert.False(t, strings.Contains(rec.Body.String(), "boom"))
}

func TestRealIPMiddleware(t *testing.T) {
	var got string
	h := realIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, got, "203.0.113.7")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, got, "198.51.100.2")
}

func TestValidateBech32Address(t *testing.T) {
	assert.NoError(t, validateBech32Address(sender, "osmo"))

	for name, addr := range map[string]string{
		"empty":        "",
		"no separator": "osmoqypqxpq9",
		"checksum":     "osmo1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5helwsq",
		"prefix":       hubSender,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, validateBech32Address(addr, "osmo"))
		})
	}
}
