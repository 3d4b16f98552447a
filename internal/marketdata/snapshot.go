package marketdata

import (
	"strings"
	"time"

	"github.com/yieldlens/yieldlens/internal/types"
)

// Snapshot is a point-in-time, read-only market-data view keyed by
// lowercase contract address. Readers treat it as immutable input; a new
// snapshot wholesale-replaces the old one on the external refresh cadence.
type Snapshot struct {
	tokens    map[string]types.TokenInfo
	pools     map[string]types.PoolInfo
	FetchedAt time.Time
}

// NewSnapshot builds a snapshot from token and pool lists.
func NewSnapshot(tokens []types.TokenInfo, pools []types.PoolInfo, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		tokens:    make(map[string]types.TokenInfo, len(tokens)),
		pools:     make(map[string]types.PoolInfo, len(pools)),
		FetchedAt: fetchedAt,
	}
	for _, t := range tokens {
		s.tokens[strings.ToLower(t.Address)] = t
	}
	for _, p := range pools {
		s.pools[strings.ToLower(p.Address)] = p
	}
	return s
}

// Token looks up market data for a token address.
func (s *Snapshot) Token(address string) (types.TokenInfo, bool) {
	if s == nil {
		return types.TokenInfo{}, false
	}
	info, ok := s.tokens[strings.ToLower(address)]
	return info, ok
}

// PoolFeeAPY looks up the externally supplied fee APY for a pool address.
func (s *Snapshot) PoolFeeAPY(address string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	info, ok := s.pools[strings.ToLower(address)]
	if !ok {
		return 0, false
	}
	return info.FeeAPY, true
}

// TokenCount reports how many tokens the snapshot covers.
func (s *Snapshot) TokenCount() int {
	if s == nil {
		return 0
	}
	return len(s.tokens)
}
