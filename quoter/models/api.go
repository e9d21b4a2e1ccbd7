package models

import "time"

// QuoteRequest asks for a quote of swapping Amount of TokenInDenom into TokenOutDenom.
// Amount is in display units.
type QuoteRequest struct {
	ChainID       string         `json:"chainId"`
	Sender        string         `json:"sender"`
	TokenInDenom  string         `json:"tokenInDenom"`
	TokenOutDenom string         `json:"tokenOutDenom"`
	Amount        string         `json:"amount"`
	IsMax         bool           `json:"isMax,omitempty"`
	Fee           *CoinPrimitive `json:"fee,omitempty"`
}

// Error kinds reported in QuoteResponse.ErrorKind
const (
	ErrorKindInsufficientAmount = "insufficient_amount"
	ErrorKindInvalidAmount      = "invalid_amount"
	ErrorKindRouting            = "routing"
	ErrorKindOther              = "other"
)

// QuoteResponse is the state of a swap form after routing
type QuoteResponse struct {
	SendCurrency    Currency       `json:"sendCurrency"`
	OutCurrency     Currency       `json:"outCurrency"`
	Amount          string         `json:"amount"`
	AmountPrimitive CoinPrimitive  `json:"amountPrimitive"`
	IsMax           bool           `json:"isMax"`
	Result          SwapResultView `json:"result"`
	Routes          []RouteView    `json:"routes"`
	ErrorKind       string         `json:"errorKind,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
}

// SwapResultView carries decimals as strings to keep their precision on the wire
type SwapResultView struct {
	Amount                                 string        `json:"amount"`
	AmountPrimitive                        CoinPrimitive `json:"amountPrimitive"`
	BeforeSpotPriceWithoutSwapFeeInOverOut string        `json:"beforeSpotPriceWithoutSwapFeeInOverOut"`
	BeforeSpotPriceWithoutSwapFeeOutOverIn string        `json:"beforeSpotPriceWithoutSwapFeeOutOverIn"`
	BeforeSpotPriceInOverOut               string        `json:"beforeSpotPriceInOverOut"`
	BeforeSpotPriceOutOverIn               string        `json:"beforeSpotPriceOutOverIn"`
	AfterSpotPriceInOverOut                string        `json:"afterSpotPriceInOverOut"`
	AfterSpotPriceOutOverIn                string        `json:"afterSpotPriceOutOverIn"`
	EffectivePriceInOverOut                string        `json:"effectivePriceInOverOut"`
	EffectivePriceOutOverIn                string        `json:"effectivePriceOutOverIn"`
	SwapFee                                string        `json:"swapFee"`
	Slippage                               string        `json:"slippage"`
}

// RouteView is one split of a quote
type RouteView struct {
	PoolIDs        []string `json:"poolIds"`
	TokenInDenom   string   `json:"tokenInDenom"`
	TokenOutDenoms []string `json:"tokenOutDenoms"`
	Amount         string   `json:"amount"`
}

type PoolAssetView struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
	Weight string `json:"weight"`
}

type PoolView struct {
	ID      string          `json:"id"`
	SwapFee string          `json:"swapFee"`
	Assets  []PoolAssetView `json:"assets"`
}

type PoolsResponse struct {
	ChainID   string     `json:"chainId"`
	Version   uint64     `json:"version"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Pools     []PoolView `json:"pools"`
}

type CreateSessionRequest struct {
	ChainID       string         `json:"chainId"`
	Sender        string         `json:"sender"`
	TokenInDenom  string         `json:"tokenInDenom,omitempty"`
	TokenOutDenom string         `json:"tokenOutDenom,omitempty"`
	Amount        string         `json:"amount,omitempty"`
	Fee           *CoinPrimitive `json:"fee,omitempty"`
}

type SetAmountRequest struct {
	Amount string `json:"amount"`
}

type SetCurrenciesRequest struct {
	TokenInDenom  string `json:"tokenInDenom"`
	TokenOutDenom string `json:"tokenOutDenom"`
}

type SetMaxRequest struct {
	IsMax bool `json:"isMax"`
}

// SessionResponse is a session together with its current quote
type SessionResponse struct {
	ID        string        `json:"id"`
	ChainID   string        `json:"chainId"`
	Sender    string        `json:"sender"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Quote     QuoteResponse `json:"quote"`
}

// ErrorResponse is the body of every 4xx and 5xx response
type ErrorResponse struct {
	Error string `json:"error"`
}
