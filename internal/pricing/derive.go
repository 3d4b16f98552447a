/*

Price derivation for two-asset pools: given the pool's packed price and the
externally-known USD price of one leg, produce USD prices for both legs.

*/

package pricing

import (
	"math/big"

	"github.com/yieldlens/yieldlens/internal/liquidity"
)

// Leg identifies which side of a pool a known USD price refers to.
type Leg int

const (
	Token0 Leg = iota
	Token1
)

// DerivePrices computes USD prices for both legs of a pool from one known
// leg. priceRaw = sqrtPrice^2 is token1-per-token0 in raw undivided units;
// rescaling by 10^(decimals0-decimals1) gives the human-scale ratio.
//
// A zero sqrtPriceX96 signals uninitialized pool state: both outputs are 0
// and the caller must treat the position's USD value as unknown, never as
// an error.
func DerivePrices(sqrtPriceX96 *big.Int, decimals0, decimals1 int, knownLeg Leg, knownPriceUSD float64) (price0USD, price1USD float64) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return 0, 0
	}

	sqrtPrice, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), liquidity.Q96).Float64()
	priceRaw := sqrtPrice * sqrtPrice
	price0in1 := priceRaw * pow10(decimals0-decimals1)

	if knownLeg == Token1 {
		return price0in1 * knownPriceUSD, knownPriceUSD
	}

	// Known leg is token0.
	if price0in1 > 0 {
		price1USD = (1 / price0in1) * knownPriceUSD
	}
	return knownPriceUSD, price1USD
}

func pow10(exp int) float64 {
	result := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			result *= 10
		}
		return result
	}
	for i := 0; i < -exp; i++ {
		result /= 10
	}
	return result
}
