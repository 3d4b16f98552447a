package reader

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/liquidity"
	"github.com/yieldlens/yieldlens/internal/types"
)

const (
	testManager = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
	testFactory = "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	testWETH    = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	testToken   = "0x1111111111111111111111111111111111111111"
	testPool    = "0x2222222222222222222222222222222222222222"
)

func clConfig() types.ProtocolConfig {
	return types.ProtocolConfig{
		Name:            "Uniswap V3",
		Template:        types.TemplateConcentratedLiquidity,
		PositionManager: testManager,
		Factory:         testFactory,
		FallbackAPY:     8,
		Kind:            types.KindLP,
	}
}

func clMarket() stubMarket {
	return stubMarket{
		tokens: map[string]types.TokenInfo{
			strings.ToLower(testWETH):  {Address: testWETH, Symbol: "WETH", Decimals: 18},
			strings.ToLower(testToken): {Address: testToken, Symbol: "TKN", Decimals: 18},
		},
		apys: map[string]float64{
			strings.ToLower(testPool): 9.9,
		},
	}
}

// positionRecord fabricates an unpacked positions() result.
func positionRecord(token0, token1 string, tickLower, tickUpper int64, liq *big.Int) []interface{} {
	return []interface{}{
		big.NewInt(0),
		common.Address{},
		common.HexToAddress(token0),
		common.HexToAddress(token1),
		big.NewInt(3000),
		big.NewInt(tickLower),
		big.NewInt(tickUpper),
		liq,
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
	}
}

func sqrtPriceX96At(tick int) *big.Int {
	scaled := new(big.Float).Mul(big.NewFloat(liquidity.SqrtPriceAtTick(tick)), liquidity.Q96)
	out, _ := scaled.Int(nil)
	return out
}

// clHandler scripts a manager holding three tokens: one live position, one
// with zero liquidity and one whose record read fails.
func clHandler() func(chain.ViewCall) chain.ViewResult {
	liq := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return func(call chain.ViewCall) chain.ViewResult {
		switch call.Method {
		case "balanceOf":
			return chain.ViewResult{Values: []interface{}{big.NewInt(3)}}
		case "tokenOfOwnerByIndex":
			index := call.Args[1].(*big.Int)
			return chain.ViewResult{Values: []interface{}{new(big.Int).Add(index, big.NewInt(1))}}
		case "positions":
			switch call.Args[0].(*big.Int).Int64() {
			case 1:
				return chain.ViewResult{Values: positionRecord(testWETH, testToken, -100, 100, liq)}
			case 2:
				return chain.ViewResult{Values: positionRecord(testWETH, testToken, -100, 100, big.NewInt(0))}
			default:
				return chain.ViewResult{Err: errors.New("execution reverted")}
			}
		case "getPool":
			return chain.ViewResult{Values: []interface{}{common.HexToAddress(testPool)}}
		case "slot0":
			return chain.ViewResult{Values: []interface{}{sqrtPriceX96At(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), true}}
		default:
			return chain.ViewResult{Err: errors.New("unexpected method " + call.Method)}
		}
	}
}

func TestConcentratedReader_ValuesInRangePosition(t *testing.T) {
	deps := testDeps(clHandler(), clMarket())

	r, err := NewReader(clConfig(), deps)
	require.NoError(t, err)

	positions, err := r.Read(context.Background(), testWallet)
	require.NoError(t, err)

	// Zero-liquidity and unreadable records are dropped, never fatal.
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, "Uniswap V3", p.Protocol)
	assert.Equal(t, "WETH/TKN", p.AssetSymbol)
	assert.Equal(t, common.HexToAddress(testPool).Hex(), p.AssetAddress)
	assert.Equal(t, types.KindLP, p.Kind)
	assert.Equal(t, 9.9, p.CurrentAPY)
	require.NotNil(t, p.InRange)
	assert.True(t, *p.InRange)

	// Both legs derive from the reference price: token0 is wrapped native at
	// $3000 and the pool trades at parity.
	liq := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	amounts, err := liquidity.TokenAmounts(liq, sqrtPriceX96At(0), -100, 100)
	require.NoError(t, err)
	want := (amounts.Amount0/1e18)*3000 + (amounts.Amount1/1e18)*3000
	assert.InDelta(t, want, p.DepositedUSD, want*1e-9)
	assert.Equal(t, liq, p.DepositedAmount)
}

func TestConcentratedReader_OutOfRangeFlag(t *testing.T) {
	liq := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	handler := func(call chain.ViewCall) chain.ViewResult {
		switch call.Method {
		case "balanceOf":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "tokenOfOwnerByIndex":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "positions":
			return chain.ViewResult{Values: positionRecord(testWETH, testToken, -100, 100, liq)}
		case "getPool":
			return chain.ViewResult{Values: []interface{}{common.HexToAddress(testPool)}}
		case "slot0":
			return chain.ViewResult{Values: []interface{}{sqrtPriceX96At(500), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), true}}
		default:
			return chain.ViewResult{Err: errors.New("unexpected method " + call.Method)}
		}
	}

	r, err := NewReader(clConfig(), testDeps(handler, clMarket()))
	require.NoError(t, err)

	positions, err := r.Read(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	require.NotNil(t, positions[0].InRange)
	assert.False(t, *positions[0].InRange)
}

func TestConcentratedReader_NoPositions(t *testing.T) {
	handler := func(call chain.ViewCall) chain.ViewResult {
		if call.Method == "balanceOf" {
			return chain.ViewResult{Values: []interface{}{big.NewInt(0)}}
		}
		return chain.ViewResult{Err: errors.New("unexpected method " + call.Method)}
	}

	r, err := NewReader(clConfig(), testDeps(handler, clMarket()))
	require.NoError(t, err)

	positions, err := r.Read(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestConcentratedReader_EnumerationFailureIsFatal(t *testing.T) {
	handler := func(call chain.ViewCall) chain.ViewResult {
		return chain.ViewResult{Err: errors.New("rpc timeout")}
	}

	r, err := NewReader(clConfig(), testDeps(handler, clMarket()))
	require.NoError(t, err)

	_, err = r.Read(context.Background(), testWallet)
	assert.Error(t, err)
}

func TestConcentratedReader_UnresolvablePoolSkipsPosition(t *testing.T) {
	liq := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	handler := func(call chain.ViewCall) chain.ViewResult {
		switch call.Method {
		case "balanceOf":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "tokenOfOwnerByIndex":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "positions":
			return chain.ViewResult{Values: positionRecord(testWETH, testToken, -100, 100, liq)}
		case "getPool":
			// The factory knows no such pool.
			return chain.ViewResult{Values: []interface{}{common.Address{}}}
		default:
			return chain.ViewResult{Err: errors.New("unexpected method " + call.Method)}
		}
	}

	r, err := NewReader(clConfig(), testDeps(handler, clMarket()))
	require.NoError(t, err)

	positions, err := r.Read(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestConcentratedReader_NoKnownLegValuesToZero(t *testing.T) {
	// Neither leg is wrapped native and the market knows no prices.
	liq := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	tokenA := "0x3333333333333333333333333333333333333333"
	handler := func(call chain.ViewCall) chain.ViewResult {
		switch call.Method {
		case "balanceOf":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "tokenOfOwnerByIndex":
			return chain.ViewResult{Values: []interface{}{big.NewInt(1)}}
		case "positions":
			return chain.ViewResult{Values: positionRecord(tokenA, testToken, -100, 100, liq)}
		case "getPool":
			return chain.ViewResult{Values: []interface{}{common.HexToAddress(testPool)}}
		case "slot0":
			return chain.ViewResult{Values: []interface{}{sqrtPriceX96At(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), true}}
		case "decimals":
			return chain.ViewResult{Values: []interface{}{uint8(18)}}
		case "symbol":
			return chain.ViewResult{Values: []interface{}{"AAA"}}
		default:
			return chain.ViewResult{Err: errors.New("unexpected method " + call.Method)}
		}
	}

	market := clMarket()
	r, err := NewReader(clConfig(), testDeps(handler, market))
	require.NoError(t, err)

	positions, err := r.Read(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	assert.Equal(t, "AAA/TKN", positions[0].AssetSymbol)
	assert.Zero(t, positions[0].DepositedUSD)
}
