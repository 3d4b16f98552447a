package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yieldlens/yieldlens/internal/liquidity"
)

// packSqrtPrice encodes a real-valued sqrt price into Q96 fixed point.
func packSqrtPrice(sqrtPrice float64) *big.Int {
	scaled := new(big.Float).Mul(big.NewFloat(sqrtPrice), liquidity.Q96)
	out, _ := scaled.Int(nil)
	return out
}

func TestDerivePrices_UninitializedPool(t *testing.T) {
	p0, p1 := DerivePrices(nil, 18, 18, Token0, 3000)
	assert.Zero(t, p0)
	assert.Zero(t, p1)

	p0, p1 = DerivePrices(big.NewInt(0), 18, 18, Token1, 3000)
	assert.Zero(t, p0)
	assert.Zero(t, p1)
}

func TestDerivePrices_KnownToken1(t *testing.T) {
	// sqrtPrice 2 means one token0 trades for four token1.
	p0, p1 := DerivePrices(packSqrtPrice(2), 18, 18, Token1, 10)

	assert.InDelta(t, 40.0, p0, 1e-6)
	assert.InDelta(t, 10.0, p1, 1e-9)
}

func TestDerivePrices_KnownToken0(t *testing.T) {
	p0, p1 := DerivePrices(packSqrtPrice(2), 18, 18, Token0, 40)

	assert.InDelta(t, 40.0, p0, 1e-9)
	assert.InDelta(t, 10.0, p1, 1e-6)
}

func TestDerivePrices_DecimalRescale(t *testing.T) {
	// A 6-decimal token0 against an 18-decimal token1 trading at parity has
	// a raw ratio of 1e12; the decimal rescale must cancel it exactly.
	p0, p1 := DerivePrices(packSqrtPrice(1e6), 6, 18, Token1, 1)

	assert.InDelta(t, 1.0, p0, 1e-6)
	assert.InDelta(t, 1.0, p1, 1e-9)
}

func TestDerivePrices_RoundTripConsistency(t *testing.T) {
	// Seeding from either leg must agree on the derived leg.
	sqrtPriceX96 := packSqrtPrice(1.7)

	p0FromT1, p1FromT1 := DerivePrices(sqrtPriceX96, 18, 18, Token1, 2500)
	p0FromT0, p1FromT0 := DerivePrices(sqrtPriceX96, 18, 18, Token0, p0FromT1)

	assert.InDelta(t, p0FromT1, p0FromT0, p0FromT1*1e-9)
	assert.InDelta(t, p1FromT1, p1FromT0, p1FromT1*1e-9)
}

func TestIsWrappedNative(t *testing.T) {
	assert.True(t, IsWrappedNative("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"))
	assert.True(t, IsWrappedNative("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"))
	assert.True(t, IsWrappedNative(" 0x4200000000000000000000000000000000000006 "))
	assert.False(t, IsWrappedNative("0x6B175474E89094C44Da98b954EedeAC495271d0F"))
	assert.False(t, IsWrappedNative(""))
}
