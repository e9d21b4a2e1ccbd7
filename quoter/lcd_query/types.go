package lcdquery

// WeightedPoolType is the @type of Osmosis balancer pools
const WeightedPoolType = "/osmosis.gamm.v1beta1.Pool"

type Pagination struct {
	NextKey *string `json:"next_key"`
	Total   string  `json:"total"`
}

type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type PoolParams struct {
	SwapFee string `json:"swap_fee"`
	ExitFee string `json:"exit_fee"`
}

type PoolAsset struct {
	Token  Coin   `json:"token"`
	Weight string `json:"weight"`
}

// GammPool is the JSON shape of a gamm pool. Fields of other pool types are ignored.
type GammPool struct {
	Type        string      `json:"@type"`
	Address     string      `json:"address"`
	ID          string      `json:"id"`
	PoolParams  PoolParams  `json:"pool_params"`
	TotalShares Coin        `json:"total_shares"`
	PoolAssets  []PoolAsset `json:"pool_assets"`
	TotalWeight string      `json:"total_weight"`
}

type PoolsResponse struct {
	Pools      []GammPool `json:"pools"`
	Pagination Pagination `json:"pagination"`
}

type BalancesResponse struct {
	Balances   []Coin     `json:"balances"`
	Pagination Pagination `json:"pagination"`
}

type NodeInfoResponse struct {
	DefaultNodeInfo struct {
		Network string `json:"network"`
		Version string `json:"version"`
		Moniker string `json:"moniker"`
	} `json:"default_node_info"`
	ApplicationVersion struct {
		Name    string `json:"name"`
		AppName string `json:"app_name"`
		Version string `json:"version"`
	} `json:"application_version"`
}
