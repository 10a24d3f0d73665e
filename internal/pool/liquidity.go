package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/position"
	"liquidityEngine/internal/sqrtprice"
	"liquidityEngine/internal/tickmath"
)

func checkTicks(lower, upper, tickSpacing int32) error {
	if lower >= upper {
		return ErrInvalidTickRange
	}
	if lower < tickmath.MinTick || upper > tickmath.MaxTick {
		return ErrTickOutOfBounds
	}
	if lower%tickSpacing != 0 || upper%tickSpacing != 0 {
		return ErrTickNotSpaced
	}
	return nil
}

// Mint adds liquidity to (owner, lower, upper). The caller pays the owed
// amounts through the callback; balances are verified after it returns.
func (p *Pool) Mint(sender, owner common.Address, lower, upper int32, amount *uint256.Int, cb PaymentCallback, data []byte) (*uint256.Int, *uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return nil, nil, ErrZeroAmount
	}
	if cb == nil {
		return nil, nil, fmt.Errorf("%w: nil payment callback", ErrInvalidConfig)
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	var j journal
	p.snapshotCore(&j)

	_, amount0Big, amount1Big, err := p.modifyPosition(&j, owner, lower, upper, amount.ToBig())
	if err != nil {
		j.revert()
		return nil, nil, err
	}
	amount0, _ := uint256.FromBig(amount0Big)
	amount1, _ := uint256.FromBig(amount1Big)

	var balance0Before, balance1Before *uint256.Int
	if !amount0.IsZero() {
		if balance0Before, err = p.balance0(); err != nil {
			j.revert()
			return nil, nil, fmt.Errorf("mint: %w", err)
		}
	}
	if !amount1.IsZero() {
		if balance1Before, err = p.balance1(); err != nil {
			j.revert()
			return nil, nil, fmt.Errorf("mint: %w", err)
		}
	}

	if err = cb.OnMintPayment(amount0, amount1, data); err != nil {
		j.revert()
		return nil, nil, fmt.Errorf("mint payment callback: %w", err)
	}

	if !amount0.IsZero() {
		if err = p.verifyPaid(p.cfg.Token0, balance0Before, amount0); err != nil {
			j.revert()
			return nil, nil, err
		}
	}
	if !amount1.IsZero() {
		if err = p.verifyPaid(p.cfg.Token1, balance1Before, amount1); err != nil {
			j.revert()
			return nil, nil, err
		}
	}

	p.logger.Debug("mint",
		zap.String("owner", owner.Hex()),
		zap.Int32("tick_lower", lower),
		zap.Int32("tick_upper", upper),
		zap.String("amount", amount.Dec()),
	)
	p.emit("Mint", model.MintEventData{
		Sender:    sender.Hex(),
		Owner:     owner.Hex(),
		TickLower: lower,
		TickUpper: upper,
		Amount:    amount.Dec(),
		Amount0:   amount0.Dec(),
		Amount1:   amount1.Dec(),
	})
	return amount0, amount1, nil
}

// verifyPaid checks that the pool's balance grew by at least owed since
// before.
func (p *Pool) verifyPaid(token common.Address, before, owed *uint256.Int) error {
	after, err := p.vault.BalanceOf(token, p.cfg.Address)
	if err != nil {
		return fmt.Errorf("balance check: %w", err)
	}
	required := new(uint256.Int).Add(before, owed)
	if after.Lt(required) {
		return ErrInsufficientInput
	}
	return nil
}

// Burn removes liquidity from (owner, lower, upper) and credits the freed
// amounts to the position's owed tokens. A zero amount recomputes fees only.
func (p *Pool) Burn(owner common.Address, lower, upper int32, amount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if amount == nil {
		amount = new(uint256.Int)
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	var j journal
	p.snapshotCore(&j)

	delta := new(big.Int).Neg(amount.ToBig())
	pos, amount0Big, amount1Big, err := p.modifyPosition(&j, owner, lower, upper, delta)
	if err != nil {
		j.revert()
		return nil, nil, err
	}

	amount0, _ := uint256.FromBig(new(big.Int).Neg(amount0Big))
	amount1, _ := uint256.FromBig(new(big.Int).Neg(amount1Big))

	if !amount0.IsZero() || !amount1.IsZero() {
		pos.TokensOwed0 = pos.TokensOwed0.AddWrap(owedFromBig(amount0.ToBig()))
		pos.TokensOwed1 = pos.TokensOwed1.AddWrap(owedFromBig(amount1.ToBig()))
	}

	p.emit("Burn", model.BurnEventData{
		Owner:     owner.Hex(),
		TickLower: lower,
		TickUpper: upper,
		Amount:    amount.Dec(),
		Amount0:   amount0.Dec(),
		Amount1:   amount1.Dec(),
	})
	return amount0, amount1, nil
}

// Collect pays out up to the requested share of a position's owed tokens.
func (p *Pool) Collect(owner, recipient common.Address, lower, upper int32, amount0Requested, amount1Requested uint128.Uint128) (uint128.Uint128, uint128.Uint128, error) {
	if err := p.lock(); err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	defer p.unlock()

	pos := p.positions.Get(owner, lower, upper)
	amount0 := min128(amount0Requested, pos.TokensOwed0)
	amount1 := min128(amount1Requested, pos.TokensOwed1)

	if !amount0.IsZero() {
		pos.TokensOwed0 = pos.TokensOwed0.Sub(amount0)
		if err := p.vault.Transfer(p.cfg.Token0, recipient, u256FromU128(amount0)); err != nil {
			pos.TokensOwed0 = pos.TokensOwed0.Add(amount0)
			return uint128.Zero, uint128.Zero, fmt.Errorf("collect: %w", err)
		}
	}
	if !amount1.IsZero() {
		pos.TokensOwed1 = pos.TokensOwed1.Sub(amount1)
		if err := p.vault.Transfer(p.cfg.Token1, recipient, u256FromU128(amount1)); err != nil {
			pos.TokensOwed1 = pos.TokensOwed1.Add(amount1)
			return uint128.Zero, uint128.Zero, fmt.Errorf("collect: %w", err)
		}
	}

	p.emit("Collect", model.CollectEventData{
		Owner:     owner.Hex(),
		Recipient: recipient.Hex(),
		TickLower: lower,
		TickUpper: upper,
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
	})
	return amount0, amount1, nil
}

// modifyPosition applies a liquidity delta to a position and returns the
// signed token amounts it moves, positive when owed to the pool. In-range
// deltas also adjust active liquidity and write an oracle observation.
func (p *Pool) modifyPosition(j *journal, owner common.Address, lower, upper int32, liquidityDelta *big.Int) (*position.Info, *big.Int, *big.Int, error) {
	if err := checkTicks(lower, upper, p.cfg.TickSpacing); err != nil {
		return nil, nil, nil, err
	}

	pos, err := p.updatePosition(j, owner, lower, upper, liquidityDelta, p.slot0.Tick)
	if err != nil {
		return nil, nil, nil, err
	}

	amount0 := new(big.Int)
	amount1 := new(big.Int)
	if liquidityDelta.Sign() != 0 {
		lowerSqrt, err := tickmath.SqrtRatioAtTick(lower)
		if err != nil {
			return nil, nil, nil, err
		}
		upperSqrt, err := tickmath.SqrtRatioAtTick(upper)
		if err != nil {
			return nil, nil, nil, err
		}

		switch {
		case p.slot0.Tick < lower:
			// Range is entirely above the current price: token0 only.
			amount0, err = sqrtprice.Amount0DeltaSigned(lowerSqrt, upperSqrt, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
		case p.slot0.Tick < upper:
			amount0, err = sqrtprice.Amount0DeltaSigned(p.slot0.SqrtPriceX96, upperSqrt, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
			amount1, err = sqrtprice.Amount1DeltaSigned(lowerSqrt, p.slot0.SqrtPriceX96, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
			newLiquidity, err := applyLiquidityDelta(p.liquidity, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
			index, cardinality := p.observations.Write(
				p.slot0.ObservationIndex,
				p.clock.Now(),
				p.slot0.Tick,
				p.liquidity,
				p.slot0.ObservationCardinality,
				p.slot0.ObservationCardinalityNext,
			)
			p.slot0.ObservationIndex = index
			p.slot0.ObservationCardinality = cardinality
			p.liquidity = newLiquidity
		default:
			// Range is entirely below the current price: token1 only.
			amount1, err = sqrtprice.Amount1DeltaSigned(lowerSqrt, upperSqrt, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
		}
	}
	return pos, amount0, amount1, nil
}

// updatePosition mutates the tick records, the bitmap, and the position
// record for one liquidity change.
func (p *Pool) updatePosition(j *journal, owner common.Address, lower, upper int32, liquidityDelta *big.Int, tick int32) (*position.Info, error) {
	pos := p.positions.Get(owner, lower, upper)

	var flippedLower, flippedUpper bool
	if liquidityDelta.Sign() != 0 {
		time := p.clock.Now()
		tickCumulative, secondsPerLiquidityCumulativeX128, err := p.observations.ObserveSingle(
			time, 0, p.slot0.Tick, p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality,
		)
		if err != nil {
			return nil, fmt.Errorf("update position: %w", err)
		}

		j.snapshotTick(p.ticks, lower)
		j.snapshotTick(p.ticks, upper)

		flippedLower, err = p.ticks.Update(
			lower, tick, liquidityDelta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
			secondsPerLiquidityCumulativeX128, tickCumulative, time,
			false, p.maxLiquidityPerTick,
		)
		if err != nil {
			return nil, fmt.Errorf("lower tick %d: %w", lower, err)
		}
		flippedUpper, err = p.ticks.Update(
			upper, tick, liquidityDelta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
			secondsPerLiquidityCumulativeX128, tickCumulative, time,
			true, p.maxLiquidityPerTick,
		)
		if err != nil {
			return nil, fmt.Errorf("upper tick %d: %w", upper, err)
		}

		if flippedLower {
			if err = p.bitmap.FlipTick(lower, p.cfg.TickSpacing); err != nil {
				return nil, err
			}
			j.record(func() { _ = p.bitmap.FlipTick(lower, p.cfg.TickSpacing) })
		}
		if flippedUpper {
			if err = p.bitmap.FlipTick(upper, p.cfg.TickSpacing); err != nil {
				return nil, err
			}
			j.record(func() { _ = p.bitmap.FlipTick(upper, p.cfg.TickSpacing) })
		}
	}

	feeGrowthInside0X128, feeGrowthInside1X128 := p.ticks.FeeGrowthInside(
		lower, upper, tick, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128,
	)

	savedPos := position.Info{
		Liquidity:                new(uint256.Int).Set(pos.Liquidity),
		FeeGrowthInside0LastX128: new(uint256.Int).Set(pos.FeeGrowthInside0LastX128),
		FeeGrowthInside1LastX128: new(uint256.Int).Set(pos.FeeGrowthInside1LastX128),
		TokensOwed0:              pos.TokensOwed0,
		TokensOwed1:              pos.TokensOwed1,
	}
	j.record(func() { *pos = savedPos })
	if err := p.positions.Update(pos, liquidityDelta, feeGrowthInside0X128, feeGrowthInside1X128); err != nil {
		return nil, err
	}

	if liquidityDelta.Sign() < 0 {
		if flippedLower {
			p.ticks.Clear(lower)
		}
		if flippedUpper {
			p.ticks.Clear(upper)
		}
	}
	return pos, nil
}

func min128(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

func u256FromU128(v uint128.Uint128) *uint256.Int {
	out, _ := uint256.FromBig(v.Big())
	return out
}
