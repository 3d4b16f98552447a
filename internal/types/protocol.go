/*

Static protocol configuration. The Postgres-backed store owns the canonical
list; the valuation core only ever reads the enabled entries.

*/

package types

import "time"

// ProtocolTemplate selects which reader variant services a protocol.
// The set is closed: adding a protocol shape means adding a variant,
// not branching on strings around the codebase.
type ProtocolTemplate string

const (
	// TemplateVault covers ERC-4626-like share vaults and single-asset
	// lending/staking wrappers.
	TemplateVault ProtocolTemplate = "vault"
	// TemplateConcentratedLiquidity covers Uniswap-V3-like NFT-managed
	// tick-range liquidity positions.
	TemplateConcentratedLiquidity ProtocolTemplate = "concentrated-liquidity"
)

// UnderlyingToken describes the deposit asset of a vault-style protocol.
type UnderlyingToken struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
}

// ProtocolConfig is the static description of one yield source.
// Contract address fields are template-dependent: vault-style configs use
// VaultAddress + Underlying, concentrated-liquidity configs use
// PositionManager + Factory.
type ProtocolConfig struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Logo     string           `json:"logo"`
	Template ProtocolTemplate `json:"template"`
	Enabled  bool             `json:"enabled"`
	ChainID  uint64           `json:"chain_id"`

	VaultAddress    string `json:"vault_address,omitempty"`
	PositionManager string `json:"position_manager,omitempty"`
	Factory         string `json:"factory,omitempty"`

	Underlying *UnderlyingToken `json:"underlying,omitempty"`

	// FallbackAPY is the static APY estimate used when no live fee APY is
	// available from the market-data feed.
	FallbackAPY float64      `json:"fallback_apy"`
	Kind        PositionKind `json:"position_kind"`
	CreatedAt   time.Time    `json:"created_at"`
}
