/*

Fixed-point concentrated-liquidity math. Converts a position's on-chain
parameters (liquidity, tick bounds, packed pool price) into real-valued
token amounts in each token's smallest unit.

All computation is double precision: this is display-grade valuation, not
settlement math. Q96 is the fixed-point scale of sqrtPriceX96.

*/

package liquidity

import (
	"errors"
	"math"
	"math/big"
)

// Q96 is 2^96, the scale factor of the packed square-root price.
var Q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

var (
	ErrNilLiquidity   = errors.New("liquidity cannot be nil")
	ErrNilSqrtPrice   = errors.New("sqrtPriceX96 cannot be nil")
	ErrInvertedBounds = errors.New("tickLower must be below tickUpper")
	ErrNegativeInput  = errors.New("liquidity and sqrtPriceX96 must be non-negative")
)

// SqrtPriceAtTick returns sqrt(1.0001^tick) for an integer tick index.
// No explicit bound enforcement beyond native float64 overflow.
func SqrtPriceAtTick(tick int) float64 {
	return math.Sqrt(math.Pow(1.0001, float64(tick)))
}

// Amounts holds the decomposed token amounts of a position, in each token's
// smallest unit, plus whether the pool's current price sits strictly inside
// the position's bounds.
type Amounts struct {
	Amount0 float64
	Amount1 float64
	InRange bool
}

// TokenAmounts decomposes a position into token0/token1 amounts using the
// standard concentrated-liquidity accounting:
//
//  1. current price at or below the lower bound: all token0, amount1 = 0
//  2. current price at or above the upper bound: all token1, amount0 = 0
//  3. current price strictly between the bounds: both legs positive
//
// The caller must guarantee tickLower < tickUpper. InRange is true exactly
// in regime 3.
func TokenAmounts(liq *big.Int, sqrtPriceX96 *big.Int, tickLower, tickUpper int) (Amounts, error) {
	if liq == nil {
		return Amounts{}, ErrNilLiquidity
	}
	if sqrtPriceX96 == nil {
		return Amounts{}, ErrNilSqrtPrice
	}
	if tickLower >= tickUpper {
		return Amounts{}, ErrInvertedBounds
	}
	if liq.Sign() < 0 || sqrtPriceX96.Sign() < 0 {
		return Amounts{}, ErrNegativeInput
	}

	liquidity, _ := new(big.Float).SetInt(liq).Float64()
	sqrtPrice, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), Q96).Float64()

	sqrtLower := SqrtPriceAtTick(tickLower)
	sqrtUpper := SqrtPriceAtTick(tickUpper)

	var out Amounts
	switch {
	case sqrtPrice <= sqrtLower:
		// Entirely token0.
		out.Amount0 = liquidity * (sqrtUpper - sqrtLower) / (sqrtLower * sqrtUpper)
	case sqrtPrice >= sqrtUpper:
		// Entirely token1.
		out.Amount1 = liquidity * (sqrtUpper - sqrtLower)
	default:
		out.Amount0 = liquidity * (sqrtUpper - sqrtPrice) / (sqrtPrice * sqrtUpper)
		out.Amount1 = liquidity * (sqrtPrice - sqrtLower)
		out.InRange = true
	}

	return out, nil
}
