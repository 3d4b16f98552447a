/*
Conversion helpers between smallest-unit on-chain integers and display-scale
floats. USD-facing paths go through shopspring/decimal so a large raw amount
does not lose more precision than the final float64 result forces.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDecimals = errors.New("token decimals are invalid")
	ErrAmountNil       = errors.New("amount is nil")
	ErrAmountNegative  = errors.New("amount is negative")
	ErrNotFinite       = errors.New("value is not finite")
)

// RawToFloat converts a smallest-unit amount to its human-scale value,
// dividing by 10^decimals.
func RawToFloat(amount *big.Int, decimals int) (float64, error) {
	if amount == nil {
		return 0, ErrAmountNil
	}
	if decimals < 0 || decimals > 36 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 36)", ErrInvalidDecimals, decimals)
	}
	if amount.Sign() < 0 {
		return 0, ErrAmountNegative
	}

	scaled := decimal.NewFromBigInt(amount, int32(-decimals))
	result, _ := scaled.Float64()
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}

// FloatToRaw converts a human-scale amount into the smallest on-chain unit,
// truncating any precision beyond the token's decimals.
func FloatToRaw(amount float64, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > 36 {
		return nil, fmt.Errorf("%w: %d (must be between 0 and 36)", ErrInvalidDecimals, decimals)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return nil, ErrAmountNegative
	}
	if amount == 0 {
		return big.NewInt(0), nil
	}

	raw := decimal.NewFromFloat(amount).Shift(int32(decimals)).Truncate(0)
	return raw.BigInt(), nil
}

// MulUSD multiplies a human-scale token amount by a USD price, guarding the
// result against non-finite values. Unusable inputs value to zero rather
// than erroring: partial portfolio data beats no data.
func MulUSD(amount, priceUSD float64) float64 {
	v := amount * priceUSD
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
