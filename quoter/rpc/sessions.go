package rpc

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/tradein"
)

// session is the swap form of one UI client
type session struct {
	mu          sync.Mutex
	id          string
	cfg         *tradein.Config
	poolVersion uint64
	lastAccess  time.Time
}

// sessionManager keeps sessions in memory and drops them after ttl of inactivity
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	gauge    prometheus.Gauge

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newSessionManager(ttl time.Duration, gauge prometheus.Gauge) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		gauge:    gauge,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *sessionManager) add(cfg *tradein.Config, poolVersion uint64) *session {
	s := &session{
		id:          uuid.NewString(),
		cfg:         cfg,
		poolVersion: poolVersion,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.lastAccess = m.now()
	m.sessions[s.id] = s
	m.gauge.Set(float64(len(m.sessions)))
	return s
}

// get returns a live session and marks it as used
func (m *sessionManager) get(id string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(s.lastAccess) > m.ttl {
		delete(m.sessions, id)
		m.gauge.Set(float64(len(m.sessions)))
		return nil, false
	}
	s.lastAccess = now
	return s, true
}

func (m *sessionManager) remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.gauge.Set(float64(len(m.sessions)))
	return true
}

func (m *sessionManager) expiresAt(s *session) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.lastAccess.Add(m.ttl)
}

// sweep drops expired sessions and returns how many were dropped
func (m *sessionManager) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dropped := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastAccess) > m.ttl {
			delete(m.sessions, id)
			dropped++
		}
	}
	m.gauge.Set(float64(len(m.sessions)))
	return dropped
}

func (m *sessionManager) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *sessionManager) start(interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if n := m.sweep(); n > 0 {
					Logger.Debug().Int("expired", n).Msg("Dropped idle sessions")
				}
			}
		}
	}()
}

func (m *sessionManager) close() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
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

	cfg, version := h.newTradeConfig(chain.ChainID, req.Sender, req.Fee)
	if err := applyCurrencies(cfg, chain, req.TokenInDenom, req.TokenOutDenom); err != nil {
		h.badRequest(w, err)
		return
	}
	if req.Amount != "" {
		cfg.SetAmount(req.Amount)
	}

	s := h.sessions.add(cfg, version)

	h.refreshBalance(r.Context(), chain.ChainID, req.Sender)

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusCreated, h.sessionResponse(r, s))
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, nil)
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.remove(chi.URLParam(r, "sessionId")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setSessionAmount(w http.ResponseWriter, r *http.Request) {
	var req models.SetAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	h.withSession(w, r, func(s *session) error {
		s.cfg.SetAmount(req.Amount)
		return nil
	})
}

func (h *handlers) setSessionCurrencies(w http.ResponseWriter, r *http.Request) {
	var req models.SetCurrenciesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	h.withSession(w, r, func(s *session) error {
		chain, err := h.chains.GetChain(s.cfg.ChainID())
		if err != nil {
			return err
		}
		return applyCurrencies(s.cfg, chain, req.TokenInDenom, req.TokenOutDenom)
	})
}

func (h *handlers) setSessionMax(w http.ResponseWriter, r *http.Request) {
	var req models.SetMaxRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	h.withSession(w, r, func(s *session) error {
		s.cfg.SetIsMax(req.IsMax)
		return nil
	})
}

func (h *handlers) switchSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) error {
		s.cfg.SwitchInAndOut()
		return nil
	})
}

// withSession loads the session, syncs it with the latest pools and balance,
// applies update and responds with the resulting quote. An update error is a 400.
func (h *handlers) withSession(w http.ResponseWriter, r *http.Request, update func(*session) error) {
	s, ok := h.sessions.get(chi.URLParam(r, "sessionId"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.ChainID() == h.chainID {
		poolList, version := h.pools.Snapshot()
		if version != s.poolVersion {
			s.cfg.SetPools(poolList)
			s.poolVersion = version
		}
	}
	h.refreshBalance(r.Context(), s.cfg.ChainID(), s.cfg.Sender())

	if update != nil {
		if err := update(s); err != nil {
			h.badRequest(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.sessionResponse(r, s))
}

// sessionResponse must be called with s.mu held
func (h *handlers) sessionResponse(r *http.Request, s *session) models.SessionResponse {
	return models.SessionResponse{
		ID:        s.id,
		ChainID:   s.cfg.ChainID(),
		Sender:    s.cfg.Sender(),
		ExpiresAt: h.sessions.expiresAt(s),
		Quote:     h.buildQuote(r.Context(), s.cfg),
	}
}

// applyCurrencies selects the denoms that are set. Empty denoms keep the
// current selection, and nothing changes unless both denoms are valid.
func applyCurrencies(cfg *tradein.Config, chain models.ChainInfo, inDenom, outDenom string) error {
	var in, out *models.Currency
	if inDenom != "" {
		c, err := validateDenom(chain, "tokenInDenom", inDenom)
		if err != nil {
			return err
		}
		in = &c
	}
	if outDenom != "" {
		c, err := validateDenom(chain, "tokenOutDenom", outDenom)
		if err != nil {
			return err
		}
		out = &c
	}
	if in != nil {
		cfg.SetSendCurrency(in)
	}
	if out != nil {
		cfg.SetOutCurrency(out)
	}
	return nil
}
