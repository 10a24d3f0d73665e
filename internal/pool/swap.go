package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/fixedpoint"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/swapmath"
	"liquidityEngine/internal/tickmath"
)

// swapCache holds values fixed for the whole swap.
type swapCache struct {
	liquidityStart *uint256.Int
	blockTimestamp uint32
	feeProtocol    uint8
	// Oracle cumulatives for the pre-swap state, computed lazily on the
	// first tick crossing.
	tickCumulative                    int64
	secondsPerLiquidityCumulativeX128 *uint256.Int
	computedLatestObservation         bool
}

// swapState is the running state of the swap loop, committed post-loop.
type swapState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *uint256.Int
	tick                     int32
	feeGrowthGlobalX128      *uint256.Int
	protocolFee              *uint256.Int
	liquidity                *uint256.Int
}

// Swap exchanges one token for the other. A positive amountSpecified is
// exact-input, negative exact-output. The price stops at sqrtPriceLimitX96 if
// the specified amount cannot be satisfied before reaching it. The output
// token is transferred before the callback runs; the input payment is
// verified after it returns.
func (p *Pool) Swap(sender, recipient common.Address, zeroForOne bool, amountSpecified *big.Int, sqrtPriceLimitX96 *uint256.Int, cb PaymentCallback, data []byte) (*big.Int, *big.Int, error) {
	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return nil, nil, ErrZeroAmount
	}
	if cb == nil {
		return nil, nil, fmt.Errorf("%w: nil payment callback", ErrInvalidConfig)
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	slot0Start := p.Slot0()
	if zeroForOne {
		if !sqrtPriceLimitX96.Lt(slot0Start.SqrtPriceX96) || !sqrtPriceLimitX96.Gt(tickmath.MinSqrtRatio) {
			return nil, nil, ErrPriceLimitOutOfRange
		}
	} else {
		if !sqrtPriceLimitX96.Gt(slot0Start.SqrtPriceX96) || !sqrtPriceLimitX96.Lt(tickmath.MaxSqrtRatio) {
			return nil, nil, ErrPriceLimitOutOfRange
		}
	}

	cache := swapCache{
		liquidityStart: new(uint256.Int).Set(p.liquidity),
		blockTimestamp: p.clock.Now(),
	}
	if zeroForOne {
		cache.feeProtocol = slot0Start.FeeProtocol % 16
	} else {
		cache.feeProtocol = slot0Start.FeeProtocol >> 4
	}

	exactInput := amountSpecified.Sign() > 0
	state := swapState{
		amountSpecifiedRemaining: new(big.Int).Set(amountSpecified),
		amountCalculated:         new(big.Int),
		sqrtPriceX96:             new(uint256.Int).Set(slot0Start.SqrtPriceX96),
		tick:                     slot0Start.Tick,
		protocolFee:              new(uint256.Int),
		liquidity:                new(uint256.Int).Set(cache.liquidityStart),
	}
	if zeroForOne {
		state.feeGrowthGlobalX128 = new(uint256.Int).Set(p.feeGrowthGlobal0X128)
	} else {
		state.feeGrowthGlobalX128 = new(uint256.Int).Set(p.feeGrowthGlobal1X128)
	}

	// Crossed ticks are the only records mutated before commit; journal them
	// so an aborted swap leaves no trace.
	var j journal

	for state.amountSpecifiedRemaining.Sign() != 0 && !state.sqrtPriceX96.Eq(sqrtPriceLimitX96) {
		sqrtPriceStartX96 := new(uint256.Int).Set(state.sqrtPriceX96)

		tickNext, initialized := p.bitmap.NextInitializedTickWithinOneWord(state.tick, p.cfg.TickSpacing, zeroForOne)
		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}

		sqrtPriceNextX96, err := tickmath.SqrtRatioAtTick(tickNext)
		if err != nil {
			j.revert()
			return nil, nil, fmt.Errorf("swap: %w", err)
		}

		sqrtPriceTargetX96 := sqrtPriceNextX96
		if zeroForOne {
			if sqrtPriceNextX96.Lt(sqrtPriceLimitX96) {
				sqrtPriceTargetX96 = sqrtPriceLimitX96
			}
		} else {
			if sqrtPriceNextX96.Gt(sqrtPriceLimitX96) {
				sqrtPriceTargetX96 = sqrtPriceLimitX96
			}
		}

		step, err := swapmath.ComputeSwapStep(state.sqrtPriceX96, sqrtPriceTargetX96, state.liquidity, state.amountSpecifiedRemaining, p.cfg.Fee)
		if err != nil {
			j.revert()
			return nil, nil, fmt.Errorf("swap step at tick %d: %w", state.tick, err)
		}
		state.sqrtPriceX96 = step.SqrtRatioNextX96

		inPlusFee := new(big.Int).Add(step.AmountIn.ToBig(), step.FeeAmount.ToBig())
		if exactInput {
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, inPlusFee)
			state.amountCalculated.Sub(state.amountCalculated, step.AmountOut.ToBig())
		} else {
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, step.AmountOut.ToBig())
			state.amountCalculated.Add(state.amountCalculated, inPlusFee)
		}

		feeAmount := step.FeeAmount
		if cache.feeProtocol > 0 {
			delta := new(uint256.Int).Div(feeAmount, uint256.NewInt(uint64(cache.feeProtocol)))
			feeAmount = new(uint256.Int).Sub(feeAmount, delta)
			state.protocolFee.Add(state.protocolFee, delta)
		}
		if !state.liquidity.IsZero() {
			growth, err := fixedpoint.MulDiv(feeAmount, fixedpoint.Q128, state.liquidity)
			if err != nil {
				j.revert()
				return nil, nil, fmt.Errorf("swap fee growth: %w", err)
			}
			state.feeGrowthGlobalX128.Add(state.feeGrowthGlobalX128, growth)
		}

		if state.sqrtPriceX96.Eq(sqrtPriceNextX96) {
			if initialized {
				if !cache.computedLatestObservation {
					cache.tickCumulative, cache.secondsPerLiquidityCumulativeX128, err = p.observations.ObserveSingle(
						cache.blockTimestamp, 0, slot0Start.Tick, slot0Start.ObservationIndex,
						cache.liquidityStart, slot0Start.ObservationCardinality,
					)
					if err != nil {
						j.revert()
						return nil, nil, fmt.Errorf("swap: %w", err)
					}
					cache.computedLatestObservation = true
				}

				j.snapshotTick(p.ticks, tickNext)
				var crossFee0, crossFee1 *uint256.Int
				if zeroForOne {
					crossFee0, crossFee1 = state.feeGrowthGlobalX128, p.feeGrowthGlobal1X128
				} else {
					crossFee0, crossFee1 = p.feeGrowthGlobal0X128, state.feeGrowthGlobalX128
				}
				liquidityNet := p.ticks.Cross(
					tickNext, crossFee0, crossFee1,
					cache.secondsPerLiquidityCumulativeX128, cache.tickCumulative, cache.blockTimestamp,
				)
				if zeroForOne {
					liquidityNet.Neg(liquidityNet)
				}
				state.liquidity, err = applyLiquidityDelta(state.liquidity, liquidityNet)
				if err != nil {
					j.revert()
					return nil, nil, fmt.Errorf("crossing tick %d: %w", tickNext, err)
				}
			}
			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if !state.sqrtPriceX96.Eq(sqrtPriceStartX96) {
			state.tick, err = tickmath.TickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				j.revert()
				return nil, nil, fmt.Errorf("swap: %w", err)
			}
		}
	}

	consumed := new(big.Int).Sub(amountSpecified, state.amountSpecifiedRemaining)
	var amount0, amount1 *big.Int
	if zeroForOne == exactInput {
		amount0, amount1 = consumed, state.amountCalculated
	} else {
		amount0, amount1 = state.amountCalculated, consumed
	}

	savedFee0, savedFee1 := p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128
	savedProto0, savedProto1 := p.protocolFees0, p.protocolFees1
	j.record(func() {
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128 = savedFee0, savedFee1
		p.protocolFees0, p.protocolFees1 = savedProto0, savedProto1
	})
	p.snapshotCore(&j)

	if state.tick != slot0Start.Tick {
		index, cardinality := p.observations.Write(
			slot0Start.ObservationIndex, cache.blockTimestamp, slot0Start.Tick,
			cache.liquidityStart, slot0Start.ObservationCardinality, slot0Start.ObservationCardinalityNext,
		)
		p.slot0.ObservationIndex = index
		p.slot0.ObservationCardinality = cardinality
		p.slot0.Tick = state.tick
	}
	p.slot0.SqrtPriceX96 = state.sqrtPriceX96
	p.liquidity = state.liquidity
	if zeroForOne {
		p.feeGrowthGlobal0X128 = state.feeGrowthGlobalX128
		if !state.protocolFee.IsZero() {
			p.protocolFees0 = p.protocolFees0.AddWrap(u128FromU256(state.protocolFee))
		}
	} else {
		p.feeGrowthGlobal1X128 = state.feeGrowthGlobalX128
		if !state.protocolFee.IsZero() {
			p.protocolFees1 = p.protocolFees1.AddWrap(u128FromU256(state.protocolFee))
		}
	}

	if err := p.settleSwap(recipient, zeroForOne, amount0, amount1, cb, data); err != nil {
		j.revert()
		return nil, nil, err
	}

	p.logger.Debug("swap",
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.Int32("tick", state.tick),
	)
	p.emit("Swap", model.SwapEventData{
		Sender:       sender.Hex(),
		Recipient:    recipient.Hex(),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SqrtPriceX96: state.sqrtPriceX96.Dec(),
		Liquidity:    state.liquidity.Dec(),
		Tick:         state.tick,
	})
	return amount0, amount1, nil
}

// settleSwap transfers the output leg, invokes the payment callback, and
// verifies the input leg arrived.
func (p *Pool) settleSwap(recipient common.Address, zeroForOne bool, amount0, amount1 *big.Int, cb PaymentCallback, data []byte) error {
	tokenIn, tokenOut := p.cfg.Token0, p.cfg.Token1
	amountIn, amountOut := amount0, amount1
	if !zeroForOne {
		tokenIn, tokenOut = p.cfg.Token1, p.cfg.Token0
		amountIn, amountOut = amount1, amount0
	}

	if amountOut.Sign() < 0 {
		out, _ := uint256.FromBig(new(big.Int).Neg(amountOut))
		if err := p.vault.Transfer(tokenOut, recipient, out); err != nil {
			return fmt.Errorf("swap output transfer: %w", err)
		}
	}

	balanceBefore, err := p.vault.BalanceOf(tokenIn, p.cfg.Address)
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if err = cb.OnSwapPayment(amount0, amount1, data); err != nil {
		return fmt.Errorf("swap payment callback: %w", err)
	}
	if amountIn.Sign() > 0 {
		owed, _ := uint256.FromBig(amountIn)
		if err = p.verifyPaid(tokenIn, balanceBefore, owed); err != nil {
			return err
		}
	}
	return nil
}

func u128FromU256(v *uint256.Int) uint128.Uint128 {
	masked := new(uint256.Int).And(v, fixedpoint.MaxUint128)
	return uint128.FromBig(masked.ToBig())
}
