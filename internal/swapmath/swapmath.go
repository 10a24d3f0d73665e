// Package swapmath computes the economics of a single swap step within one
// tick interval.
package swapmath

import (
	"math/big"

	"github.com/holiman/uint256"

	"liquidityEngine/internal/fixedpoint"
	"liquidityEngine/internal/sqrtprice"
)

// FeeDenominator expresses fees in hundredths of a basis point.
const FeeDenominator = 1_000_000

// StepResult is the outcome of one swap step.
type StepResult struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep advances the price from sqrtRatioCurrentX96 toward
// sqrtRatioTargetX96, consuming at most amountRemaining (positive for
// exact-in, negative for exact-out) at feePips. Inputs round up and outputs
// round down so the pool never pays out more than the curve allows.
func ComputeSwapStep(
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity *uint256.Int,
	amountRemaining *big.Int,
	feePips uint32,
) (StepResult, error) {
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)
	exactIn := amountRemaining.Sign() >= 0

	res := StepResult{
		AmountIn:  new(uint256.Int),
		AmountOut: new(uint256.Int),
		FeeAmount: new(uint256.Int),
	}
	feeRemainder := uint256.NewInt(uint64(FeeDenominator - feePips))

	var err error
	if exactIn {
		remaining, _ := uint256.FromBig(amountRemaining)
		remainingLessFee, mErr := fixedpoint.MulDiv(remaining, feeRemainder, uint256.NewInt(FeeDenominator))
		if mErr != nil {
			return StepResult{}, mErr
		}

		if zeroForOne {
			res.AmountIn, err = sqrtprice.Amount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			res.AmountIn, err = sqrtprice.Amount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return StepResult{}, err
		}

		if !remainingLessFee.Lt(res.AmountIn) {
			res.SqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			res.SqrtRatioNextX96, err = sqrtprice.NextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
		}
	} else {
		remainingAbs, _ := uint256.FromBig(new(big.Int).Neg(amountRemaining))

		if zeroForOne {
			res.AmountOut, err = sqrtprice.Amount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			res.AmountOut, err = sqrtprice.Amount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return StepResult{}, err
		}

		if !remainingAbs.Lt(res.AmountOut) {
			res.SqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			res.SqrtRatioNextX96, err = sqrtprice.NextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, remainingAbs, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTargetX96.Eq(res.SqrtRatioNextX96)

	// Recompute both legs from the actual price movement unless the estimate
	// above is already exact for that leg.
	if zeroForOne {
		if !(reachedTarget && exactIn) {
			res.AmountIn, err = sqrtprice.Amount0Delta(res.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return StepResult{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			res.AmountOut, err = sqrtprice.Amount1Delta(res.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
			if err != nil {
				return StepResult{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			res.AmountIn, err = sqrtprice.Amount1Delta(sqrtRatioCurrentX96, res.SqrtRatioNextX96, liquidity, true)
			if err != nil {
				return StepResult{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			res.AmountOut, err = sqrtprice.Amount0Delta(sqrtRatioCurrentX96, res.SqrtRatioNextX96, liquidity, false)
			if err != nil {
				return StepResult{}, err
			}
		}
	}

	if !exactIn {
		remainingAbs, _ := uint256.FromBig(new(big.Int).Neg(amountRemaining))
		if res.AmountOut.Gt(remainingAbs) {
			res.AmountOut.Set(remainingAbs)
		}
	}

	if exactIn && !reachedTarget {
		// Terminating mid-interval: the residual input is the fee, so
		// amountIn + feeAmount == amountRemaining exactly.
		remaining, _ := uint256.FromBig(amountRemaining)
		res.FeeAmount = new(uint256.Int).Sub(remaining, res.AmountIn)
	} else {
		res.FeeAmount, err = fixedpoint.MulDivRoundingUp(res.AmountIn, uint256.NewInt(uint64(feePips)), feeRemainder)
		if err != nil {
			return StepResult{}, err
		}
	}

	return res, nil
}
