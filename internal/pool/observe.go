package pool

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/model"
)

// IncreaseObservationCardinalityNext grows the oracle's next cardinality.
// No-op when the buffer already accommodates the requested value.
func (p *Pool) IncreaseObservationCardinalityNext(observationCardinalityNext uint16) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	old := p.slot0.ObservationCardinalityNext
	updated := p.observations.Grow(old, observationCardinalityNext)
	p.slot0.ObservationCardinalityNext = updated
	if updated == old {
		return nil
	}

	p.logger.Info("observation cardinality grown",
		zap.Uint16("from", old),
		zap.Uint16("to", updated),
	)
	p.emit("IncreaseObservationCardinalityNext", model.IncreaseObservationCardinalityNextEventData{
		CardinalityNextOld: old,
		CardinalityNextNew: updated,
	})
	return nil
}

// Observe returns the cumulative tick and seconds-per-liquidity values as of
// each secondsAgo from the current block time.
func (p *Pool) Observe(secondsAgos []uint32) ([]int64, []*uint256.Int, error) {
	if p.slot0.SqrtPriceX96.IsZero() {
		return nil, nil, ErrNotInitialized
	}
	return p.observations.Observe(
		p.clock.Now(), secondsAgos, p.slot0.Tick,
		p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality,
	)
}

// SnapshotCumulativesInside returns the tick cumulative, seconds per
// liquidity, and seconds spent inside [lower, upper]. Snapshots are only
// meaningful as differences taken while the range holds liquidity.
func (p *Pool) SnapshotCumulativesInside(lower, upper int32) (int64, *uint256.Int, uint32, error) {
	if p.slot0.SqrtPriceX96.IsZero() {
		return 0, nil, 0, ErrNotInitialized
	}
	if err := checkTicks(lower, upper, p.cfg.TickSpacing); err != nil {
		return 0, nil, 0, err
	}

	lowerInfo, ok := p.ticks[lower]
	if !ok || !lowerInfo.Initialized {
		return 0, nil, 0, fmt.Errorf("%w: %d", ErrTickNotInitialized, lower)
	}
	upperInfo, ok := p.ticks[upper]
	if !ok || !upperInfo.Initialized {
		return 0, nil, 0, fmt.Errorf("%w: %d", ErrTickNotInitialized, upper)
	}

	switch {
	case p.slot0.Tick < lower:
		tickCumulativeInside := lowerInfo.TickCumulativeOutside - upperInfo.TickCumulativeOutside
		secondsPerLiquidityInsideX128 := new(uint256.Int).Sub(
			lowerInfo.SecondsPerLiquidityOutsideX128, upperInfo.SecondsPerLiquidityOutsideX128,
		)
		secondsInside := lowerInfo.SecondsOutside - upperInfo.SecondsOutside
		return tickCumulativeInside, secondsPerLiquidityInsideX128, secondsInside, nil
	case p.slot0.Tick < upper:
		time := p.clock.Now()
		tickCumulative, secondsPerLiquidityCumulativeX128, err := p.observations.ObserveSingle(
			time, 0, p.slot0.Tick, p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality,
		)
		if err != nil {
			return 0, nil, 0, err
		}
		tickCumulativeInside := tickCumulative - lowerInfo.TickCumulativeOutside - upperInfo.TickCumulativeOutside
		secondsPerLiquidityInsideX128 := new(uint256.Int).Sub(secondsPerLiquidityCumulativeX128, lowerInfo.SecondsPerLiquidityOutsideX128)
		secondsPerLiquidityInsideX128.Sub(secondsPerLiquidityInsideX128, upperInfo.SecondsPerLiquidityOutsideX128)
		secondsInside := time - lowerInfo.SecondsOutside - upperInfo.SecondsOutside
		return tickCumulativeInside, secondsPerLiquidityInsideX128, secondsInside, nil
	default:
		tickCumulativeInside := upperInfo.TickCumulativeOutside - lowerInfo.TickCumulativeOutside
		secondsPerLiquidityInsideX128 := new(uint256.Int).Sub(
			upperInfo.SecondsPerLiquidityOutsideX128, lowerInfo.SecondsPerLiquidityOutsideX128,
		)
		secondsInside := upperInfo.SecondsOutside - lowerInfo.SecondsOutside
		return tickCumulativeInside, secondsPerLiquidityInsideX128, secondsInside, nil
	}
}
