// Package oracle stores cumulative tick and seconds-per-liquidity samples in
// a ring buffer with a growable effective cardinality. Consumers derive
// time-weighted averages by differencing two samples.
package oracle

import (
	"errors"

	"github.com/holiman/uint256"
)

// MaxCardinality is the fixed slot capacity of the ring buffer.
const MaxCardinality = 65535

var (
	ErrNotInitialized = errors.New("oracle: no observations written")
	ErrTooOld         = errors.New("oracle: requested timestamp predates oldest observation")
)

// Observation is one sample of the running accumulators.
type Observation struct {
	BlockTimestamp                    uint32
	TickCumulative                    int64
	SecondsPerLiquidityCumulativeX128 uint256.Int
	Initialized                       bool
}

// Oracle is the dense 65,535-slot observation buffer. The active window is
// obs[0..cardinality).
type Oracle struct {
	obs []Observation
}

// New allocates the full buffer up front.
func New() *Oracle {
	return &Oracle{obs: make([]Observation, MaxCardinality)}
}

// At returns a copy of the observation at index.
func (o *Oracle) At(index uint16) Observation {
	return o.obs[index]
}

// Set overwrites the observation at index.
func (o *Oracle) Set(index uint16, obs Observation) {
	o.obs[index] = obs
}

// Initialize writes the first observation and returns the initial cardinality
// and next cardinality, both 1.
func (o *Oracle) Initialize(time uint32) (uint16, uint16) {
	o.obs[0] = Observation{
		BlockTimestamp: time,
		Initialized:    true,
	}
	return 1, 1
}

// transform projects an observation forward to time given the tick and
// liquidity that were in effect since it was written.
func transform(last Observation, time uint32, tick int32, liquidity *uint256.Int) Observation {
	delta := time - last.BlockTimestamp
	next := Observation{
		BlockTimestamp: time,
		TickCumulative: last.TickCumulative + int64(tick)*int64(delta),
		Initialized:    true,
	}
	perLiquidity := new(uint256.Int).Lsh(uint256.NewInt(uint64(delta)), 128)
	if liquidity.IsZero() {
		perLiquidity.Div(perLiquidity, uint256.NewInt(1))
	} else {
		perLiquidity.Div(perLiquidity, liquidity)
	}
	next.SecondsPerLiquidityCumulativeX128.Add(&last.SecondsPerLiquidityCumulativeX128, perLiquidity)
	return next
}

// Write appends an observation if none has been written at time yet. The
// cardinality grows to cardinalityNext when the write wraps the buffer.
func (o *Oracle) Write(index uint16, time uint32, tick int32, liquidity *uint256.Int, cardinality, cardinalityNext uint16) (uint16, uint16) {
	last := o.obs[index]
	if last.BlockTimestamp == time {
		return index, cardinality
	}

	updated := cardinality
	if cardinalityNext > cardinality && index == cardinality-1 {
		updated = cardinalityNext
	}

	nextIndex := (index + 1) % updated
	o.obs[nextIndex] = transform(last, time, tick, liquidity)
	return nextIndex, updated
}

// Grow initializes slots [current, next) with a sentinel timestamp so they
// count as allocated, and returns max(current, next). When current is 0 (no
// observation written yet) it changes nothing and returns 0.
func (o *Oracle) Grow(current, next uint16) uint16 {
	if current == 0 {
		return current
	}
	if next <= current {
		return current
	}
	for i := current; i < next; i++ {
		o.obs[i].BlockTimestamp = 1
	}
	return next
}

// ObserveSingle returns the cumulative values at time - secondsAgo. A
// secondsAgo of zero extrapolates from the newest observation using the
// current tick and liquidity.
func (o *Oracle) ObserveSingle(time, secondsAgo uint32, tick int32, index uint16, liquidity *uint256.Int, cardinality uint16) (int64, *uint256.Int, error) {
	if cardinality == 0 {
		return 0, nil, ErrNotInitialized
	}

	if secondsAgo == 0 {
		last := o.obs[index]
		if last.BlockTimestamp != time {
			last = transform(last, time, tick, liquidity)
		}
		cum := new(uint256.Int).Set(&last.SecondsPerLiquidityCumulativeX128)
		return last.TickCumulative, cum, nil
	}

	target := time - secondsAgo

	before, after, err := o.surroundingObservations(time, target, tick, index, liquidity, cardinality)
	if err != nil {
		return 0, nil, err
	}

	if target == before.BlockTimestamp {
		cum := new(uint256.Int).Set(&before.SecondsPerLiquidityCumulativeX128)
		return before.TickCumulative, cum, nil
	}
	if target == after.BlockTimestamp {
		cum := new(uint256.Int).Set(&after.SecondsPerLiquidityCumulativeX128)
		return after.TickCumulative, cum, nil
	}

	// Linear interpolation between the bracketing observations.
	span := after.BlockTimestamp - before.BlockTimestamp
	elapsed := target - before.BlockTimestamp

	tickCumulative := before.TickCumulative +
		(after.TickCumulative-before.TickCumulative)/int64(span)*int64(elapsed)

	perLiquidityDelta := new(uint256.Int).Sub(
		&after.SecondsPerLiquidityCumulativeX128,
		&before.SecondsPerLiquidityCumulativeX128,
	)
	perLiquidityDelta.Mul(perLiquidityDelta, uint256.NewInt(uint64(elapsed)))
	perLiquidityDelta.Div(perLiquidityDelta, uint256.NewInt(uint64(span)))
	perLiquidity := new(uint256.Int).Add(&before.SecondsPerLiquidityCumulativeX128, perLiquidityDelta)

	return tickCumulative, perLiquidity, nil
}

// Observe is the vectorized form of ObserveSingle.
func (o *Oracle) Observe(time uint32, secondsAgos []uint32, tick int32, index uint16, liquidity *uint256.Int, cardinality uint16) ([]int64, []*uint256.Int, error) {
	tickCumulatives := make([]int64, len(secondsAgos))
	perLiquidityCumulatives := make([]*uint256.Int, len(secondsAgos))
	for i, secondsAgo := range secondsAgos {
		var err error
		tickCumulatives[i], perLiquidityCumulatives[i], err = o.ObserveSingle(time, secondsAgo, tick, index, liquidity, cardinality)
		if err != nil {
			return nil, nil, err
		}
	}
	return tickCumulatives, perLiquidityCumulatives, nil
}

// surroundingObservations finds the pair of observations bracketing target,
// transforming the newest forward when the target is ahead of it.
func (o *Oracle) surroundingObservations(time, target uint32, tick int32, index uint16, liquidity *uint256.Int, cardinality uint16) (Observation, Observation, error) {
	before := o.obs[index]

	if lte(time, before.BlockTimestamp, target) {
		if before.BlockTimestamp == target {
			return before, Observation{}, nil
		}
		return before, transform(before, target, tick, liquidity), nil
	}

	oldest := o.obs[(index+1)%cardinality]
	if !oldest.Initialized {
		oldest = o.obs[0]
	}

	if !lte(time, oldest.BlockTimestamp, target) {
		return Observation{}, Observation{}, ErrTooOld
	}

	return o.binarySearch(time, target, index, cardinality)
}

// binarySearch locates the bracketing pair in the ordered ring window.
func (o *Oracle) binarySearch(time, target uint32, index uint16, cardinality uint16) (Observation, Observation, error) {
	l := (uint32(index) + 1) % uint32(cardinality)
	r := l + uint32(cardinality) - 1

	for {
		i := (l + r) / 2
		before := o.obs[i%uint32(cardinality)]
		if !before.Initialized {
			l = i + 1
			continue
		}
		after := o.obs[(i+1)%uint32(cardinality)]

		targetAtOrAfter := lte(time, before.BlockTimestamp, target)
		if targetAtOrAfter && lte(time, target, after.BlockTimestamp) {
			return before, after, nil
		}
		if !targetAtOrAfter {
			r = i - 1
		} else {
			l = i + 1
		}
	}
}

// lte compares two u32 timestamps that may have wrapped, treating both
// relative to time.
func lte(time, a, b uint32) bool {
	if a <= time && b <= time {
		return a <= b
	}
	aAdjusted := uint64(a)
	if a > time {
		aAdjusted = uint64(a)
	} else {
		aAdjusted = uint64(a) + (1 << 32)
	}
	bAdjusted := uint64(b)
	if b <= time {
		bAdjusted = uint64(b) + (1 << 32)
	}
	return aAdjusted <= bAdjusted
}
