// Package tickmath converts between tick indices and Q64.96 sqrt prices.
//
// The forward direction walks a ladder of precomputed UQ128.128 constants,
// one per bit of the tick magnitude; the inverse recovers the tick from a
// fixed-point base-2 logarithm. Both are bit-exact: for every tick t below
// MaxTick, TickAtSqrtRatio(SqrtRatioAtTick(t)) == t. TickAtSqrtRatio rejects
// MaxSqrtRatio itself, so MaxTick does not round-trip.
package tickmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick that may be passed to SqrtRatioAtTick.
	MinTick int32 = -887272
	// MaxTick is the highest tick that may be passed to SqrtRatioAtTick.
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is SqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is SqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("tickmath: tick out of bounds")
	ErrSqrtRatioOutOfBounds = errors.New("tickmath: sqrt ratio out of bounds")

	maxUint256 = new(uint256.Int).SetAllOne()

	// 1/sqrt(1.0001^(2^i)) in UQ128.128 for i = 0..19.
	ratioLadder = [20]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	qOne = uint256.MustFromHex("0x100000000000000000000000000000000")

	logScale     = newBigFromDecimal("255738958999603826347141")
	tickLowBias  = newBigFromDecimal("3402992956809132418596140100660247210")
	tickHighBias = newBigFromDecimal("291339464771989622907027621153398088495")
)

// SqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as an unsigned Q64.96.
func SqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(ratioLadder[0])
	} else {
		ratio.Set(qOne)
	}
	for i := 1; i < len(ratioLadder); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, ratioLadder[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Shift from Q128.128 down to Q64.96, rounding up so the result always
	// satisfies TickAtSqrtRatio(result) == tick.
	rem := new(uint256.Int).And(ratio, uint256.NewInt(0xffffffff))
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// TickAtSqrtRatio returns the greatest tick t such that
// SqrtRatioAtTick(t) <= sqrtRatioX96.
func TickAtSqrtRatio(sqrtRatioX96 *uint256.Int) (int32, error) {
	if sqrtRatioX96.Lt(MinSqrtRatio) || !sqrtRatioX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtRatioOutOfBounds
	}

	ratio := new(big.Int).Lsh(sqrtRatioX96.ToBig(), 32)
	msb := ratio.BitLen() - 1

	r := new(big.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb-127))
	} else {
		r.Lsh(ratio, uint(127-msb))
	}

	log2 := big.NewInt(int64(msb) - 128)
	log2.Lsh(log2, 64)

	// Fourteen squaring rounds extract the fractional bits of log2(ratio).
	frac := new(big.Int)
	for i := 0; i < 14; i++ {
		r.Mul(r, r).Rsh(r, 127)
		f := frac.Rsh(r, 128).Uint64()
		if f != 0 {
			log2.Add(log2, new(big.Int).Lsh(big.NewInt(1), uint(63-i)))
			r.Rsh(r, 1)
		}
	}

	logSqrt10001 := new(big.Int).Mul(log2, logScale)

	tickLow := new(big.Int).Sub(logSqrt10001, tickLowBias)
	tickLow.Rsh(tickLow, 128)
	tickHigh := new(big.Int).Add(logSqrt10001, tickHighBias)
	tickHigh.Rsh(tickHigh, 128)

	low := int32(tickLow.Int64())
	high := int32(tickHigh.Int64())
	if low == high {
		return low, nil
	}

	atHigh, err := SqrtRatioAtTick(high)
	if err != nil {
		return 0, err
	}
	if !sqrtRatioX96.Lt(atHigh) {
		return high, nil
	}
	return low, nil
}

func newBigFromDecimal(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad decimal constant " + s)
	}
	return n
}
