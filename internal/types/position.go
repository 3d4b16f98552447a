/*

Canonical position record: one valued stake a wallet holds in one protocol.
Readers for every protocol template produce these, and the scoring engine
consumes them without knowing which reader they came from.

*/

package types

import "math/big"

// PositionKind classifies what a position fundamentally is.
type PositionKind string

const (
	KindLending PositionKind = "lending"
	KindStaking PositionKind = "staking"
	KindLP      PositionKind = "lp"
	KindBond    PositionKind = "bond"
)

// Position is one valued stake in one protocol. DepositedAmount is
// denominated in the asset's smallest on-chain unit; the owning protocol
// config carries the decimal count needed for human-scale display.
type Position struct {
	Protocol        string       `json:"protocol"`
	ProtocolLogo    string       `json:"protocol_logo"`
	AssetSymbol     string       `json:"asset_symbol"`
	AssetAddress    string       `json:"asset_address"`
	DepositedAmount *big.Int     `json:"deposited_amount"`
	DepositedUSD    float64      `json:"deposited_usd"`      // always >= 0
	CurrentAPY      float64      `json:"current_apy"`        // percent, may be 0
	YieldEarnedUSD  float64      `json:"yield_earned_usd"`   // may be negative
	Kind            PositionKind `json:"position_type"`
	EntryTimestamp  int64        `json:"entry_timestamp"` // unix seconds

	// InRange is set only for concentrated-liquidity positions: true iff
	// the pool's current price lies within the position's tick bounds.
	InRange *bool `json:"in_range,omitempty"`
}

// IsLP reports whether this position is a concentrated-liquidity position.
func (p Position) IsLP() bool {
	return p.Kind == KindLP
}
