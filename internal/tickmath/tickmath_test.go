package tickmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSqrtRatioAtTickBounds(t *testing.T) {
	_, err := SqrtRatioAtTick(MinTick - 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)
	_, err = SqrtRatioAtTick(MaxTick + 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)

	low, err := SqrtRatioAtTick(MinTick)
	require.NoError(t, err)
	require.Equal(t, MinSqrtRatio, low)

	high, err := SqrtRatioAtTick(MaxTick)
	require.NoError(t, err)
	require.Equal(t, MaxSqrtRatio, high)
}

func TestSqrtRatioAtTickZero(t *testing.T) {
	out, err := SqrtRatioAtTick(0)
	require.NoError(t, err)
	require.Equal(t, "79228162514264337593543950336", out.Dec())
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -500000, -250000, -50000, -100, -1, 0, 1, 100, 50000, 250000, 500000, MaxTick}
	prev, err := SqrtRatioAtTick(ticks[0])
	require.NoError(t, err)
	for _, tick := range ticks[1:] {
		cur, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		require.True(t, prev.Lt(cur), "ratio must grow with tick %d", tick)
		prev = cur
	}
}

func TestTickAtSqrtRatioBounds(t *testing.T) {
	_, err := TickAtSqrtRatio(new(uint256.Int).SubUint64(MinSqrtRatio, 1))
	require.ErrorIs(t, err, ErrSqrtRatioOutOfBounds)
	_, err = TickAtSqrtRatio(MaxSqrtRatio)
	require.ErrorIs(t, err, ErrSqrtRatioOutOfBounds)

	tick, err := TickAtSqrtRatio(MinSqrtRatio)
	require.NoError(t, err)
	require.Equal(t, MinTick, tick)

	tick, err = TickAtSqrtRatio(new(uint256.Int).SubUint64(MaxSqrtRatio, 1))
	require.NoError(t, err)
	require.Equal(t, MaxTick-1, tick)
}

func TestTickAtSqrtRatioAtParity(t *testing.T) {
	tick, err := TickAtSqrtRatio(uint256.MustFromDecimal("79228162514264337593543950336"))
	require.NoError(t, err)
	require.Equal(t, int32(0), tick)
}

func TestRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -887271, -400000, -100000, -30000, -60, -2, -1, 0, 1, 2, 60, 30000, 100000, 400000, 887271, MaxTick}
	for _, tick := range ticks {
		ratio, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		if tick == MaxTick {
			// MaxSqrtRatio itself is out of the inverse's half-open domain.
			continue
		}
		got, err := TickAtSqrtRatio(ratio)
		require.NoError(t, err)
		require.Equal(t, tick, got, "round trip for tick %d", tick)
	}
}

func TestTickAtSqrtRatioGreatestTick(t *testing.T) {
	// Any price strictly inside [ratio(t), ratio(t+1)) resolves to t.
	for _, tick := range []int32{-30000, -1, 0, 1, 30000} {
		lower, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		upper, err := SqrtRatioAtTick(tick + 1)
		require.NoError(t, err)

		got, err := TickAtSqrtRatio(lower)
		require.NoError(t, err)
		require.Equal(t, tick, got)

		justBelow := new(uint256.Int).SubUint64(upper, 1)
		got, err = TickAtSqrtRatio(justBelow)
		require.NoError(t, err)
		require.Equal(t, tick, got)
	}
}
