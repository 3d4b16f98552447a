/*

Concentrated-liquidity reader. Enumerates a wallet's NFT-managed positions
at a Uniswap-V3-like protocol, decomposes each into token amounts via the
liquidity math, and derives USD legs from pool state seeded by the
reference-asset price.

Enumeration is strictly sequential only where the protocol forces it
(an index must resolve to a token ID before that ID's position can be
read); everything else ships as batched eth_calls.

*/

package reader

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/liquidity"
	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/pricing"
	"github.com/yieldlens/yieldlens/internal/types"
	"github.com/yieldlens/yieldlens/internal/utils"
)

var clLogger = logger.GetForComponent("cl_reader")

type concentratedReader struct {
	cfg  types.ProtocolConfig
	deps Deps
}

// onchainPosition is one decoded positions() record.
type onchainPosition struct {
	tokenID   *big.Int
	token0    common.Address
	token1    common.Address
	fee       *big.Int
	tickLower int
	tickUpper int
	liquidity *big.Int
}

func (r *concentratedReader) Read(ctx context.Context, wallet string) ([]types.Position, error) {
	if !common.IsHexAddress(wallet) {
		return nil, ErrInvalidWallet
	}
	owner := common.HexToAddress(wallet)

	count, err := r.positionCount(ctx, owner)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []types.Position{}, nil
	}

	tokenIDs := r.tokenIDs(ctx, owner, count)
	if len(tokenIDs) == 0 {
		return []types.Position{}, nil
	}

	raws := r.readPositions(ctx, tokenIDs)
	if len(raws) == 0 {
		return []types.Position{}, nil
	}

	return r.value(ctx, raws), nil
}

// positionCount reads balanceOf on the position manager. A failure here is
// a whole-reader failure: nothing can be enumerated without it.
func (r *concentratedReader) positionCount(ctx context.Context, owner common.Address) (int, error) {
	values, err := r.deps.Chain.CallView(ctx, chain.ViewCall{
		To:     r.cfg.PositionManager,
		ABI:    &chain.PositionManagerABI,
		Method: "balanceOf",
		Args:   []interface{}{owner},
	})
	if err != nil {
		return 0, err
	}
	count, ok := values[0].(*big.Int)
	if !ok {
		return 0, chain.ErrEmptyResult
	}
	return int(count.Int64()), nil
}

// tokenIDs resolves owner indexes to position token IDs in one batch.
// Individual failures (e.g. an index racing a burn) are skipped.
func (r *concentratedReader) tokenIDs(ctx context.Context, owner common.Address, count int) []*big.Int {
	calls := make([]chain.ViewCall, count)
	for i := 0; i < count; i++ {
		calls[i] = chain.ViewCall{
			To:     r.cfg.PositionManager,
			ABI:    &chain.PositionManagerABI,
			Method: "tokenOfOwnerByIndex",
			Args:   []interface{}{owner, big.NewInt(int64(i))},
		}
	}

	ids := make([]*big.Int, 0, count)
	for i, result := range r.deps.Chain.BatchCallViews(ctx, calls) {
		if result.Err != nil {
			clLogger.Warn().
				Err(result.Err).
				Str("protocol", r.cfg.Name).
				Int("index", i).
				Msg("Skipping unreadable position index")
			continue
		}
		if id, ok := result.Values[0].(*big.Int); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// readPositions fetches and decodes the positions() record for each token
// ID in one batch, skipping stale or undecodable entries and positions
// with zero liquidity.
func (r *concentratedReader) readPositions(ctx context.Context, tokenIDs []*big.Int) []onchainPosition {
	calls := make([]chain.ViewCall, len(tokenIDs))
	for i, id := range tokenIDs {
		calls[i] = chain.ViewCall{
			To:     r.cfg.PositionManager,
			ABI:    &chain.PositionManagerABI,
			Method: "positions",
			Args:   []interface{}{id},
		}
	}

	positions := make([]onchainPosition, 0, len(tokenIDs))
	for i, result := range r.deps.Chain.BatchCallViews(ctx, calls) {
		if result.Err != nil {
			clLogger.Warn().
				Err(result.Err).
				Str("protocol", r.cfg.Name).
				Str("tokenId", tokenIDs[i].String()).
				Msg("Skipping unreadable position record")
			continue
		}

		pos, ok := decodePosition(tokenIDs[i], result.Values)
		if !ok {
			clLogger.Warn().
				Str("protocol", r.cfg.Name).
				Str("tokenId", tokenIDs[i].String()).
				Msg("Skipping undecodable position record")
			continue
		}
		if pos.liquidity.Sign() == 0 {
			continue
		}
		positions = append(positions, pos)
	}
	return positions
}

// decodePosition picks the needed fields out of an unpacked positions()
// result. Layout: nonce, operator, token0, token1, fee, tickLower,
// tickUpper, liquidity, ...
func decodePosition(tokenID *big.Int, values []interface{}) (onchainPosition, bool) {
	if len(values) < 8 {
		return onchainPosition{}, false
	}
	token0, ok0 := values[2].(common.Address)
	token1, ok1 := values[3].(common.Address)
	fee, okFee := values[4].(*big.Int)
	tickLower, okLo := values[5].(*big.Int)
	tickUpper, okHi := values[6].(*big.Int)
	liq, okLiq := values[7].(*big.Int)
	if !ok0 || !ok1 || !okFee || !okLo || !okHi || !okLiq {
		return onchainPosition{}, false
	}
	return onchainPosition{
		tokenID:   tokenID,
		token0:    token0,
		token1:    token1,
		fee:       fee,
		tickLower: int(tickLower.Int64()),
		tickUpper: int(tickUpper.Int64()),
		liquidity: liq,
	}, true
}

// value resolves pool state for each position and assembles the canonical
// records. Pool resolution and slot0 reads each go out as one batch.
func (r *concentratedReader) value(ctx context.Context, raws []onchainPosition) []types.Position {
	poolCalls := make([]chain.ViewCall, len(raws))
	for i, pos := range raws {
		poolCalls[i] = chain.ViewCall{
			To:     r.cfg.Factory,
			ABI:    &chain.FactoryABI,
			Method: "getPool",
			Args:   []interface{}{pos.token0, pos.token1, pos.fee},
		}
	}
	poolResults := r.deps.Chain.BatchCallViews(ctx, poolCalls)

	pools := make([]common.Address, len(raws))
	slotCalls := make([]chain.ViewCall, 0, len(raws))
	slotIndex := make([]int, 0, len(raws))
	for i, result := range poolResults {
		if result.Err != nil {
			clLogger.Warn().
				Err(result.Err).
				Str("protocol", r.cfg.Name).
				Str("tokenId", raws[i].tokenID.String()).
				Msg("Skipping position with unresolvable pool")
			continue
		}
		pool, ok := result.Values[0].(common.Address)
		if !ok || pool == (common.Address{}) {
			continue
		}
		pools[i] = pool
		slotCalls = append(slotCalls, chain.ViewCall{
			To:     pool.Hex(),
			ABI:    &chain.PoolABI,
			Method: "slot0",
		})
		slotIndex = append(slotIndex, i)
	}

	sqrtPrices := make([]*big.Int, len(raws))
	for j, result := range r.deps.Chain.BatchCallViews(ctx, slotCalls) {
		i := slotIndex[j]
		if result.Err != nil {
			clLogger.Warn().
				Err(result.Err).
				Str("protocol", r.cfg.Name).
				Str("pool", pools[i].Hex()).
				Msg("Skipping position with unreadable pool state")
			continue
		}
		if sqrtPrice, ok := result.Values[0].(*big.Int); ok {
			sqrtPrices[i] = sqrtPrice
		}
	}

	out := make([]types.Position, 0, len(raws))
	for i, raw := range raws {
		if sqrtPrices[i] == nil {
			continue
		}
		position, ok := r.assemble(ctx, raw, pools[i], sqrtPrices[i])
		if !ok {
			continue
		}
		out = append(out, position)
	}
	return out
}

// assemble turns one raw position plus live pool state into a Position.
func (r *concentratedReader) assemble(ctx context.Context, raw onchainPosition, pool common.Address, sqrtPriceX96 *big.Int) (types.Position, bool) {
	info0 := r.tokenInfo(ctx, raw.token0)
	info1 := r.tokenInfo(ctx, raw.token1)

	amounts, err := liquidity.TokenAmounts(raw.liquidity, sqrtPriceX96, raw.tickLower, raw.tickUpper)
	if err != nil {
		clLogger.Warn().
			Err(err).
			Str("protocol", r.cfg.Name).
			Str("tokenId", raw.tokenID.String()).
			Msg("Skipping position with invalid liquidity parameters")
		return types.Position{}, false
	}

	price0, price1 := r.legPrices(ctx, raw, sqrtPriceX96, info0, info1)

	human0 := amounts.Amount0 / pow10(info0.Decimals)
	human1 := amounts.Amount1 / pow10(info1.Decimals)
	depositedUSD := utils.MulUSD(human0, price0) + utils.MulUSD(human1, price1)

	apy, ok := r.deps.Market.PoolFeeAPY(pool.Hex())
	if !ok {
		apy = r.cfg.FallbackAPY
	}

	inRange := amounts.InRange
	clLogger.Debug().
		Str("protocol", r.cfg.Name).
		Str("tokenId", raw.tokenID.String()).
		Float64("amount0", human0).
		Float64("amount1", human1).
		Float64("price0USD", price0).
		Float64("price1USD", price1).
		Float64("depositedUSD", depositedUSD).
		Bool("inRange", inRange).
		Msg("Valued concentrated-liquidity position")

	return types.Position{
		Protocol:        r.cfg.Name,
		ProtocolLogo:    r.cfg.Logo,
		AssetSymbol:     info0.Symbol + "/" + info1.Symbol,
		AssetAddress:    pool.Hex(),
		DepositedAmount: new(big.Int).Set(raw.liquidity),
		DepositedUSD:    depositedUSD,
		CurrentAPY:      apy,
		YieldEarnedUSD:  0,
		Kind:            types.KindLP,
		EntryTimestamp:  time.Now().Unix(),
		InRange:         &inRange,
	}, true
}

// legPrices derives USD prices for both pool legs. If either leg is the
// wrapped native asset, the reference oracle seeds derivation; otherwise
// any market-known leg does. With no known leg both prices are zero and
// the position values to zero rather than failing.
func (r *concentratedReader) legPrices(ctx context.Context, raw onchainPosition, sqrtPriceX96 *big.Int, info0, info1 types.TokenInfo) (float64, float64) {
	switch {
	case pricing.IsWrappedNative(raw.token0.Hex()):
		return pricing.DerivePrices(sqrtPriceX96, info0.Decimals, info1.Decimals, pricing.Token0, r.deps.Reference.PriceUSD(ctx))
	case pricing.IsWrappedNative(raw.token1.Hex()):
		return pricing.DerivePrices(sqrtPriceX96, info0.Decimals, info1.Decimals, pricing.Token1, r.deps.Reference.PriceUSD(ctx))
	case info0.PriceUSD > 0:
		return pricing.DerivePrices(sqrtPriceX96, info0.Decimals, info1.Decimals, pricing.Token0, info0.PriceUSD)
	case info1.PriceUSD > 0:
		return pricing.DerivePrices(sqrtPriceX96, info0.Decimals, info1.Decimals, pricing.Token1, info1.PriceUSD)
	default:
		clLogger.Warn().
			Str("protocol", r.cfg.Name).
			Str("token0", raw.token0.Hex()).
			Str("token1", raw.token1.Hex()).
			Msg("No known USD leg for pool, valuing position at zero")
		return 0, 0
	}
}

// tokenInfo resolves a token's symbol and decimals, preferring the market
// snapshot and falling back to on-chain metadata reads.
func (r *concentratedReader) tokenInfo(ctx context.Context, token common.Address) types.TokenInfo {
	if info, ok := r.deps.Market.Token(token.Hex()); ok {
		return info
	}

	info := types.TokenInfo{Address: token.Hex(), Symbol: shortAddress(token), Decimals: 18}
	results := r.deps.Chain.BatchCallViews(ctx, []chain.ViewCall{
		{To: token.Hex(), ABI: &chain.ERC20ABI, Method: "decimals"},
		{To: token.Hex(), ABI: &chain.ERC20ABI, Method: "symbol"},
	})
	if results[0].Err == nil {
		if decimals, ok := results[0].Values[0].(uint8); ok {
			info.Decimals = int(decimals)
		}
	}
	if results[1].Err == nil {
		if symbol, ok := results[1].Values[0].(string); ok && symbol != "" {
			info.Symbol = symbol
		}
	}
	return info
}

func shortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

func pow10(decimals int) float64 {
	result := 1.0
	for i := 0; i < decimals; i++ {
		result *= 10
	}
	return result
}
