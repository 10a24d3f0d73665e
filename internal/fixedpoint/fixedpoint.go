package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Q-format constants shared by the price and fee arithmetic.
var (
	// Q32 is 2^32.
	Q32 = uint256.NewInt(0).Lsh(uint256.NewInt(1), 32)
	// Q96 is the UQ64.96 fixed-point representation of 1.
	Q96 = uint256.NewInt(0).Lsh(uint256.NewInt(1), 96)
	// Q128 is the UQ128.128 fixed-point representation of 1.
	Q128 = uint256.NewInt(0).Lsh(uint256.NewInt(1), 128)

	// MaxUint128 is 2^128 - 1, the bound for liquidity and owed-token fields.
	MaxUint128 = uint256.NewInt(0).SubUint64(uint256.NewInt(0).Lsh(uint256.NewInt(1), 128), 1)
	// MaxUint160 is 2^160 - 1, the bound for sqrt prices.
	MaxUint160 = uint256.NewInt(0).SubUint64(uint256.NewInt(0).Lsh(uint256.NewInt(1), 160), 1)
)

var (
	ErrDenominatorZero = errors.New("fixedpoint: denominator is zero")
	ErrMulDivOverflow  = errors.New("fixedpoint: muldiv result exceeds 256 bits")
)

// MulDiv returns floor(a*b/denominator), computing the 512-bit intermediate
// product exactly. The quotient must fit in 256 bits.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDenominatorZero
	}
	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	product.Quo(product, denominator.ToBig())
	if product.BitLen() > 256 {
		return nil, ErrMulDivOverflow
	}
	out, _ := uint256.FromBig(product)
	return out, nil
}

// MulDivRoundingUp returns ceil(a*b/denominator) under the same contract as
// MulDiv.
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDenominatorZero
	}
	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	quo, rem := new(big.Int).QuoRem(product, denominator.ToBig(), new(big.Int))
	if rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if quo.BitLen() > 256 {
		return nil, ErrMulDivOverflow
	}
	out, _ := uint256.FromBig(quo)
	return out, nil
}

// DivRoundingUp returns ceil(a/denominator).
func DivRoundingUp(a, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDenominatorZero
	}
	quo := new(uint256.Int).Div(a, denominator)
	rem := new(uint256.Int).Mod(a, denominator)
	if !rem.IsZero() {
		quo.AddUint64(quo, 1)
	}
	return quo, nil
}
