package types

// TokenInfo is a point-in-time market-data view of one token. Snapshots are
// refreshed out-of-band; the valuation core never refetches them itself.
type TokenInfo struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
	LogoURI  string  `json:"logo_uri,omitempty"`
}

// PoolInfo is a point-in-time market-data view of one two-asset pool.
type PoolInfo struct {
	Address string  `json:"address"`
	Token0  string  `json:"token0"`
	Token1  string  `json:"token1"`
	FeeAPY  float64 `json:"fee_apy"` // percent
}
