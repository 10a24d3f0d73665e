// Package sqrtprice implements the closed-form liquidity curve:
//
//	amount0 = L * (sqrtB - sqrtA) / (sqrtA * sqrtB)
//	amount1 = L * (sqrtB - sqrtA)
//
// with the rounding contract that deposits and owed inputs round up while
// withdrawals and outputs round down.
package sqrtprice

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"liquidityEngine/internal/fixedpoint"
)

var (
	ErrSqrtPriceZero    = errors.New("sqrtprice: sqrt price is zero")
	ErrLiquidityZero    = errors.New("sqrtprice: liquidity is zero")
	ErrPriceOverflow    = errors.New("sqrtprice: price calculation overflow")
	ErrInsufficientPool = errors.New("sqrtprice: amount exceeds available reserves")
)

// Amount0Delta returns |amount0| between two sqrt prices for liquidity L.
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return nil, ErrSqrtPriceZero
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		term, err := fixedpoint.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96)
		if err != nil {
			return nil, err
		}
		return fixedpoint.DivRoundingUp(term, sqrtRatioAX96)
	}
	term, err := fixedpoint.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(term, sqrtRatioAX96), nil
}

// Amount1Delta returns |amount1| between two sqrt prices for liquidity L.
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	delta := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fixedpoint.MulDivRoundingUp(liquidity, delta, fixedpoint.Q96)
	}
	return fixedpoint.MulDiv(liquidity, delta, fixedpoint.Q96)
}

// Amount0DeltaSigned returns amount0 for a signed liquidity delta. Positive
// liquidity rounds up, negative rounds down; the sign of the result follows
// the sign of the liquidity.
func Amount0DeltaSigned(sqrtRatioAX96, sqrtRatioBX96 *uint256.Int, liquidity *big.Int) (*big.Int, error) {
	if liquidity.Sign() < 0 {
		absLiquidity, _ := uint256.FromBig(new(big.Int).Neg(liquidity))
		amount, err := Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, absLiquidity, false)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Neg(amount.ToBig()), nil
	}
	absLiquidity, _ := uint256.FromBig(liquidity)
	amount, err := Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, absLiquidity, true)
	if err != nil {
		return nil, err
	}
	return amount.ToBig(), nil
}

// Amount1DeltaSigned returns amount1 for a signed liquidity delta with the
// same rounding rules as Amount0DeltaSigned.
func Amount1DeltaSigned(sqrtRatioAX96, sqrtRatioBX96 *uint256.Int, liquidity *big.Int) (*big.Int, error) {
	if liquidity.Sign() < 0 {
		absLiquidity, _ := uint256.FromBig(new(big.Int).Neg(liquidity))
		amount, err := Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, absLiquidity, false)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Neg(amount.ToBig()), nil
	}
	absLiquidity, _ := uint256.FromBig(liquidity)
	amount, err := Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, absLiquidity, true)
	if err != nil {
		return nil, err
	}
	return amount.ToBig(), nil
}

// NextSqrtPriceFromInput returns the price after consuming amountIn of the
// input token, rounding so the consumed input computed back from the result
// never exceeds amountIn.
func NextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the price after producing amountOut of the
// output token, rounding so the produced output computed back from the result
// never exceeds amountOut.
func NextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	product := new(uint256.Int).Mul(amount, sqrtPX96)
	overflowed := !new(uint256.Int).Div(product, amount).Eq(sqrtPX96)

	if add {
		if !overflowed {
			denominator := new(uint256.Int).Add(numerator1, product)
			if !denominator.Lt(numerator1) {
				return fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		// Overflow-safe fallback, truncating L/sqrtP: L / (L/sqrtP + amount).
		denominator := new(uint256.Int).Div(numerator1, sqrtPX96)
		denominator.Add(denominator, amount)
		return fixedpoint.DivRoundingUp(numerator1, denominator)
	}

	if overflowed || !product.Lt(numerator1) {
		return nil, ErrInsufficientPool
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	next, err := fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
	if err != nil {
		return nil, ErrPriceOverflow
	}
	return next, nil
}

func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		quotient, err := fixedpoint.MulDiv(amount, fixedpoint.Q96, liquidity)
		if err != nil {
			return nil, err
		}
		next := new(uint256.Int).Add(sqrtPX96, quotient)
		if next.Lt(sqrtPX96) {
			return nil, ErrPriceOverflow
		}
		return next, nil
	}
	quotient, err := fixedpoint.MulDivRoundingUp(amount, fixedpoint.Q96, liquidity)
	if err != nil {
		return nil, err
	}
	if !sqrtPX96.Gt(quotient) {
		return nil, ErrInsufficientPool
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}
