/*

Vault-style reader for ERC-4626-like protocols: the wallet holds shares,
the vault converts shares to underlying assets, and the underlying token
descriptor on the config prices the result.

*/

package reader

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/types"
	"github.com/yieldlens/yieldlens/internal/utils"
)

var vaultLogger = logger.GetForComponent("vault_reader")

type vaultReader struct {
	cfg  types.ProtocolConfig
	deps Deps
}

func (r *vaultReader) Read(ctx context.Context, wallet string) ([]types.Position, error) {
	if !common.IsHexAddress(wallet) {
		return nil, ErrInvalidWallet
	}
	owner := common.HexToAddress(wallet)

	shares, err := r.callUint(ctx, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("vault share balance read failed for %s: %w", r.cfg.Name, err)
	}
	if shares.Sign() == 0 {
		return []types.Position{}, nil
	}

	// Share-to-asset conversion is best effort: vaults that do not expose
	// it are valued at share parity.
	assets, err := r.callUint(ctx, "convertToAssets", shares)
	if err != nil {
		vaultLogger.Warn().
			Err(err).
			Str("protocol", r.cfg.Name).
			Msg("convertToAssets unavailable, valuing shares at parity")
		assets = shares
	}

	underlying := *r.cfg.Underlying
	priceUSD := underlying.PriceUSD
	if info, ok := r.deps.Market.Token(underlying.Address); ok && info.PriceUSD > 0 {
		// Live market price beats the static descriptor when present.
		priceUSD = info.PriceUSD
	}

	assetAmount, err := utils.RawToFloat(assets, underlying.Decimals)
	if err != nil {
		return nil, fmt.Errorf("vault asset conversion failed for %s: %w", r.cfg.Name, err)
	}
	depositedUSD := utils.MulUSD(assetAmount, priceUSD)

	// Share price starts at parity for 4626-style vaults, so the asset
	// surplus over shares approximates accrued yield. Negative values are
	// legitimate (the vault realized a loss).
	yieldUSD := 0.0
	if surplus, err := utils.RawToFloat(new(big.Int).Sub(assets, shares), underlying.Decimals); err == nil {
		yieldUSD = utils.MulUSD(surplus, priceUSD)
	} else if deficit, err := utils.RawToFloat(new(big.Int).Sub(shares, assets), underlying.Decimals); err == nil {
		yieldUSD = -utils.MulUSD(deficit, priceUSD)
	}

	vaultLogger.Debug().
		Str("protocol", r.cfg.Name).
		Str("shares", shares.String()).
		Str("assets", assets.String()).
		Float64("depositedUSD", depositedUSD).
		Float64("yieldUSD", yieldUSD).
		Msg("Valued vault position")

	return []types.Position{{
		Protocol:        r.cfg.Name,
		ProtocolLogo:    r.cfg.Logo,
		AssetSymbol:     underlying.Symbol,
		AssetAddress:    underlying.Address,
		DepositedAmount: assets,
		DepositedUSD:    depositedUSD,
		CurrentAPY:      r.currentAPY(),
		YieldEarnedUSD:  yieldUSD,
		Kind:            r.cfg.Kind,
		EntryTimestamp:  time.Now().Unix(),
	}}, nil
}

func (r *vaultReader) currentAPY() float64 {
	if apy, ok := r.deps.Market.PoolFeeAPY(r.cfg.VaultAddress); ok {
		return apy
	}
	return r.cfg.FallbackAPY
}

func (r *vaultReader) callUint(ctx context.Context, method string, arg interface{}) (*big.Int, error) {
	values, err := r.deps.Chain.CallView(ctx, chain.ViewCall{
		To:     r.cfg.VaultAddress,
		ABI:    &chain.VaultABI,
		Method: method,
		Args:   []interface{}{arg},
	})
	if err != nil {
		return nil, err
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}
	return value, nil
}
