// Package tickbook tracks per-tick liquidity and the outside accumulators
// used to decompose global fee growth into range-relative values.
package tickbook

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/tickmath"
)

var (
	ErrLiquidityOverflow  = errors.New("tickbook: liquidity gross exceeds per-tick maximum")
	ErrLiquidityUnderflow = errors.New("tickbook: liquidity gross underflow")
)

// Info is the state kept for an initialized tick.
type Info struct {
	LiquidityGross                 *uint256.Int
	LiquidityNet                   *big.Int
	FeeGrowthOutside0X128          *uint256.Int
	FeeGrowthOutside1X128          *uint256.Int
	TickCumulativeOutside          int64
	SecondsPerLiquidityOutsideX128 *uint256.Int
	SecondsOutside                 uint32
	Initialized                    bool
}

func newInfo() *Info {
	return &Info{
		LiquidityGross:                 new(uint256.Int),
		LiquidityNet:                   new(big.Int),
		FeeGrowthOutside0X128:          new(uint256.Int),
		FeeGrowthOutside1X128:          new(uint256.Int),
		SecondsPerLiquidityOutsideX128: new(uint256.Int),
	}
}

// Clone returns a deep copy of the record.
func (i *Info) Clone() *Info {
	return &Info{
		LiquidityGross:                 new(uint256.Int).Set(i.LiquidityGross),
		LiquidityNet:                   new(big.Int).Set(i.LiquidityNet),
		FeeGrowthOutside0X128:          new(uint256.Int).Set(i.FeeGrowthOutside0X128),
		FeeGrowthOutside1X128:          new(uint256.Int).Set(i.FeeGrowthOutside1X128),
		TickCumulativeOutside:          i.TickCumulativeOutside,
		SecondsPerLiquidityOutsideX128: new(uint256.Int).Set(i.SecondsPerLiquidityOutsideX128),
		SecondsOutside:                 i.SecondsOutside,
		Initialized:                    i.Initialized,
	}
}

// Book maps tick index to tick state. Records exist only while referenced by
// at least one position.
type Book map[int32]*Info

// New returns an empty tick book.
func New() Book {
	return make(Book)
}

// Get returns the record for tick, materializing a zero record if absent.
func (b Book) Get(tick int32) *Info {
	info, ok := b[tick]
	if !ok {
		info = newInfo()
		b[tick] = info
	}
	return info
}

// MaxLiquidityPerTick returns floor((2^128-1) / numUsableTicks) for the
// given spacing.
func MaxLiquidityPerTick(tickSpacing int32) *uint256.Int {
	minTick := (tickmath.MinTick / tickSpacing) * tickSpacing
	maxTick := (tickmath.MaxTick / tickSpacing) * tickSpacing
	numTicks := uint64((maxTick-minTick)/tickSpacing) + 1
	perTick := uint128.Max.Div64(numTicks)
	out, _ := uint256.FromBig(perTick.Big())
	return out
}

// Update applies a liquidity delta to one endpoint of a range. It returns
// whether the tick flipped between initialized and uninitialized. On first
// initialization at or below the current tick, the outside accumulators are
// seeded with the current globals: the convention is that all prior growth
// happened below the tick.
func (b Book) Update(
	tick, tickCurrent int32,
	liquidityDelta *big.Int,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	time uint32,
	upper bool,
	maxLiquidityPerTick *uint256.Int,
) (bool, error) {
	info := b.Get(tick)

	grossBefore := new(uint256.Int).Set(info.LiquidityGross)
	grossAfter, err := addLiquidityDelta(grossBefore, liquidityDelta, maxLiquidityPerTick)
	if err != nil {
		return false, err
	}

	flipped := grossAfter.IsZero() != grossBefore.IsZero()

	if grossBefore.IsZero() {
		if tick <= tickCurrent {
			info.FeeGrowthOutside0X128.Set(feeGrowthGlobal0X128)
			info.FeeGrowthOutside1X128.Set(feeGrowthGlobal1X128)
			info.SecondsPerLiquidityOutsideX128.Set(secondsPerLiquidityCumulativeX128)
			info.TickCumulativeOutside = tickCumulative
			info.SecondsOutside = time
		}
		info.Initialized = true
	}

	info.LiquidityGross = grossAfter

	if upper {
		info.LiquidityNet.Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet.Add(info.LiquidityNet, liquidityDelta)
	}

	return flipped, nil
}

// Cross flips the outside accumulators of tick to the other side of the
// current price and returns its net liquidity. The swap loop negates the
// result when traveling right to left.
func (b Book) Cross(
	tick int32,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	time uint32,
) *big.Int {
	info := b.Get(tick)
	info.FeeGrowthOutside0X128.Sub(feeGrowthGlobal0X128, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128.Sub(feeGrowthGlobal1X128, info.FeeGrowthOutside1X128)
	info.SecondsPerLiquidityOutsideX128.Sub(secondsPerLiquidityCumulativeX128, info.SecondsPerLiquidityOutsideX128)
	info.TickCumulativeOutside = tickCumulative - info.TickCumulativeOutside
	info.SecondsOutside = time - info.SecondsOutside
	return new(big.Int).Set(info.LiquidityNet)
}

// Clear deletes the record for tick.
func (b Book) Clear(tick int32) {
	delete(b, tick)
}

// FeeGrowthInside decomposes the global fee accumulators into the growth
// inside [lower, upper] via inside = global - below - above. All arithmetic
// wraps modulo 2^256; only differences of snapshots are meaningful.
func (b Book) FeeGrowthInside(
	lower, upper, tickCurrent int32,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
) (*uint256.Int, *uint256.Int) {
	lowerInfo := b.Get(lower)
	upperInfo := b.Get(upper)

	below0 := new(uint256.Int)
	below1 := new(uint256.Int)
	if tickCurrent >= lower {
		below0.Set(lowerInfo.FeeGrowthOutside0X128)
		below1.Set(lowerInfo.FeeGrowthOutside1X128)
	} else {
		below0.Sub(feeGrowthGlobal0X128, lowerInfo.FeeGrowthOutside0X128)
		below1.Sub(feeGrowthGlobal1X128, lowerInfo.FeeGrowthOutside1X128)
	}

	above0 := new(uint256.Int)
	above1 := new(uint256.Int)
	if tickCurrent < upper {
		above0.Set(upperInfo.FeeGrowthOutside0X128)
		above1.Set(upperInfo.FeeGrowthOutside1X128)
	} else {
		above0.Sub(feeGrowthGlobal0X128, upperInfo.FeeGrowthOutside0X128)
		above1.Sub(feeGrowthGlobal1X128, upperInfo.FeeGrowthOutside1X128)
	}

	inside0 := new(uint256.Int).Sub(feeGrowthGlobal0X128, below0)
	inside0.Sub(inside0, above0)
	inside1 := new(uint256.Int).Sub(feeGrowthGlobal1X128, below1)
	inside1.Sub(inside1, above1)
	return inside0, inside1
}

func addLiquidityDelta(gross *uint256.Int, delta *big.Int, maxLiquidityPerTick *uint256.Int) (*uint256.Int, error) {
	result := new(big.Int).Add(gross.ToBig(), delta)
	if result.Sign() < 0 {
		return nil, ErrLiquidityUnderflow
	}
	after, overflow := uint256.FromBig(result)
	if overflow || after.Gt(maxLiquidityPerTick) {
		return nil, ErrLiquidityOverflow
	}
	return after, nil
}
