/*

Position readers. One reader services one protocol config; the template tag
on the config selects the variant exactly once, here. Every variant
produces canonical Position records and follows the same failure policy:
a single bad position is skipped, an empty result means "no open
positions", and only permanent failures (bad wallet, unusable config)
reject the whole reader.

*/

package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/types"
)

var (
	ErrInvalidWallet      = errors.New("invalid wallet address")
	ErrUnknownTemplate    = errors.New("unknown protocol template")
	ErrIncompleteConfig   = errors.New("protocol config is missing required addresses")
	ErrChainReaderMissing = errors.New("chain reader is required")
)

// ChainReader is the on-chain read capability a reader depends on.
// chain.Client satisfies it; tests substitute stubs.
type ChainReader interface {
	CallView(ctx context.Context, call chain.ViewCall) ([]interface{}, error)
	BatchCallViews(ctx context.Context, calls []chain.ViewCall) []chain.ViewResult
}

// MarketData is the read-only market snapshot interface readers consult.
// A nil-backed implementation that always misses is valid input.
type MarketData interface {
	Token(address string) (types.TokenInfo, bool)
	PoolFeeAPY(address string) (float64, bool)
}

// ReferencePricer supplies the wrapped-native asset's USD price used to
// seed pool price derivation.
type ReferencePricer interface {
	PriceUSD(ctx context.Context) float64
}

// Deps bundles the collaborators shared by all reader variants.
type Deps struct {
	Chain     ChainReader
	Market    MarketData
	Reference ReferencePricer
}

// PositionReader enumerates a wallet's open positions at one protocol.
type PositionReader interface {
	// Read returns the wallet's positions. An empty slice means no open
	// positions, not an error.
	Read(ctx context.Context, wallet string) ([]types.Position, error)
}

// NewReader builds the reader variant for one protocol config. Template
// dispatch happens only here: the rest of the codebase never branches on
// the tag.
func NewReader(cfg types.ProtocolConfig, deps Deps) (PositionReader, error) {
	if deps.Chain == nil {
		return nil, ErrChainReaderMissing
	}

	switch cfg.Template {
	case types.TemplateConcentratedLiquidity:
		if !common.IsHexAddress(cfg.PositionManager) || !common.IsHexAddress(cfg.Factory) {
			return nil, fmt.Errorf("%w: %s needs position manager and factory", ErrIncompleteConfig, cfg.Name)
		}
		return &concentratedReader{cfg: cfg, deps: deps}, nil
	case types.TemplateVault:
		if !common.IsHexAddress(cfg.VaultAddress) {
			return nil, fmt.Errorf("%w: %s needs a vault address", ErrIncompleteConfig, cfg.Name)
		}
		if cfg.Underlying == nil {
			return nil, fmt.Errorf("%w: %s needs an underlying token descriptor", ErrIncompleteConfig, cfg.Name)
		}
		return &vaultReader{cfg: cfg, deps: deps}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, cfg.Template)
	}
}
