package tickbook

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestMaxLiquidityPerTick(t *testing.T) {
	cases := []struct {
		spacing int32
		want    string
	}{
		{1, "191757530477355301479181766273477"},
		{60, "11505743598341114571880798222544994"},
		{200, "38350317471085141830651933667504588"},
	}
	for _, tc := range cases {
		got := MaxLiquidityPerTick(tc.spacing)
		if got.Dec() != tc.want {
			t.Fatalf("spacing %d: got %s, want %s", tc.spacing, got.Dec(), tc.want)
		}
	}
}

func TestUpdateFlips(t *testing.T) {
	b := New()
	max := MaxLiquidityPerTick(1)
	zero := new(uint256.Int)

	flipped, err := b.Update(10, 0, big.NewInt(100), zero, zero, zero, 0, 1, false, max)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !flipped {
		t.Fatalf("first liquidity must flip the tick on")
	}

	flipped, err = b.Update(10, 0, big.NewInt(50), zero, zero, zero, 0, 1, false, max)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if flipped {
		t.Fatalf("adding to a live tick must not flip")
	}

	flipped, err = b.Update(10, 0, big.NewInt(-150), zero, zero, zero, 0, 1, false, max)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !flipped {
		t.Fatalf("draining the tick must flip it off")
	}
}

func TestUpdateNet(t *testing.T) {
	b := New()
	max := MaxLiquidityPerTick(1)
	zero := new(uint256.Int)

	if _, err := b.Update(10, 0, big.NewInt(100), zero, zero, zero, 0, 1, false, max); err != nil {
		t.Fatalf("lower update: %v", err)
	}
	if _, err := b.Update(10, 0, big.NewInt(40), zero, zero, zero, 0, 1, true, max); err != nil {
		t.Fatalf("upper update: %v", err)
	}

	info := b.Get(10)
	if info.LiquidityGross.Uint64() != 140 {
		t.Fatalf("gross mismatch: %s", info.LiquidityGross.Dec())
	}
	if info.LiquidityNet.Int64() != 60 {
		t.Fatalf("net mismatch: %s", info.LiquidityNet.String())
	}
}

func TestUpdateBounds(t *testing.T) {
	b := New()
	max := uint256.NewInt(100)
	zero := new(uint256.Int)

	if _, err := b.Update(0, 0, big.NewInt(101), zero, zero, zero, 0, 1, false, max); !errors.Is(err, ErrLiquidityOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := b.Update(0, 0, big.NewInt(-1), zero, zero, zero, 0, 1, false, max); !errors.Is(err, ErrLiquidityUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestUpdateSeedsOutside(t *testing.T) {
	b := New()
	max := MaxLiquidityPerTick(1)
	global0 := uint256.NewInt(777)
	global1 := uint256.NewInt(888)
	spl := uint256.NewInt(55)

	// Tick at or below current seeds outside with the globals.
	if _, err := b.Update(5, 10, big.NewInt(1), global0, global1, spl, 42, 1000, false, max); err != nil {
		t.Fatalf("update: %v", err)
	}
	below := b.Get(5)
	if !below.FeeGrowthOutside0X128.Eq(global0) || !below.FeeGrowthOutside1X128.Eq(global1) {
		t.Fatalf("outside fee growth not seeded: %+v", below)
	}
	if below.TickCumulativeOutside != 42 || below.SecondsOutside != 1000 {
		t.Fatalf("outside cumulatives not seeded: %+v", below)
	}

	// Tick above current stays zeroed.
	if _, err := b.Update(20, 10, big.NewInt(1), global0, global1, spl, 42, 1000, false, max); err != nil {
		t.Fatalf("update: %v", err)
	}
	above := b.Get(20)
	if !above.FeeGrowthOutside0X128.IsZero() || above.SecondsOutside != 0 {
		t.Fatalf("outside values must stay zero above current: %+v", above)
	}
	if !above.Initialized {
		t.Fatalf("tick must be marked initialized")
	}
}

func TestCross(t *testing.T) {
	b := New()
	max := MaxLiquidityPerTick(1)
	zero := new(uint256.Int)

	if _, err := b.Update(0, 0, big.NewInt(100), zero, zero, zero, 0, 0, false, max); err != nil {
		t.Fatalf("update: %v", err)
	}

	global0 := uint256.NewInt(1000)
	global1 := uint256.NewInt(2000)
	net := b.Cross(0, global0, global1, uint256.NewInt(10), 99, 500)
	if net.Int64() != 100 {
		t.Fatalf("net mismatch: %s", net.String())
	}

	info := b.Get(0)
	if !info.FeeGrowthOutside0X128.Eq(global0) || !info.FeeGrowthOutside1X128.Eq(global1) {
		t.Fatalf("first cross flips outside to global: %+v", info)
	}
	if info.TickCumulativeOutside != 99 || info.SecondsOutside != 500 {
		t.Fatalf("cumulative outside mismatch: %+v", info)
	}

	// Crossing back restores the original zeros.
	b.Cross(0, global0, global1, uint256.NewInt(10), 99, 500)
	if !info.FeeGrowthOutside0X128.IsZero() || info.SecondsOutside != 0 {
		t.Fatalf("second cross must invert the first: %+v", info)
	}
}

func TestFeeGrowthInside(t *testing.T) {
	b := New()
	global0 := uint256.NewInt(15)
	global1 := uint256.NewInt(15)

	// Uninitialized ticks contribute zero outside, so inside equals global.
	inside0, inside1 := b.FeeGrowthInside(-2, 2, 0, global0, global1)
	if inside0.Uint64() != 15 || inside1.Uint64() != 15 {
		t.Fatalf("inside mismatch: %s %s", inside0.Dec(), inside1.Dec())
	}

	// Growth recorded outside the range is excluded.
	lower := b.Get(-2)
	lower.FeeGrowthOutside0X128 = uint256.NewInt(2)
	lower.FeeGrowthOutside1X128 = uint256.NewInt(3)
	lower.Initialized = true
	upper := b.Get(2)
	upper.FeeGrowthOutside0X128 = uint256.NewInt(4)
	upper.FeeGrowthOutside1X128 = uint256.NewInt(1)
	upper.Initialized = true

	inside0, inside1 = b.FeeGrowthInside(-2, 2, 0, global0, global1)
	if inside0.Uint64() != 9 || inside1.Uint64() != 11 {
		t.Fatalf("inside mismatch: %s %s", inside0.Dec(), inside1.Dec())
	}

	// Current price below the range flips the lower interpretation:
	// below = global - outside(lower) = 13, above = outside(upper) = 4,
	// and inside = 15 - 13 - 4 wraps modulo 2^256.
	inside0, _ = b.FeeGrowthInside(-2, 2, -5, global0, global1)
	want := new(uint256.Int).Sub(global0, uint256.NewInt(13))
	want.Sub(want, uint256.NewInt(4))
	if !inside0.Eq(want) {
		t.Fatalf("inside below range mismatch: %s != %s", inside0.Dec(), want.Dec())
	}
}

func TestClear(t *testing.T) {
	b := New()
	b.Get(7).Initialized = true
	b.Clear(7)
	if _, ok := b[7]; ok {
		t.Fatalf("clear must delete the record")
	}
}

func TestCloneIsDeep(t *testing.T) {
	info := newInfo()
	info.LiquidityGross.SetUint64(5)
	info.LiquidityNet.SetInt64(-5)
	info.Initialized = true

	clone := info.Clone()
	clone.LiquidityGross.SetUint64(99)
	clone.LiquidityNet.SetInt64(99)

	if info.LiquidityGross.Uint64() != 5 || info.LiquidityNet.Int64() != -5 {
		t.Fatalf("clone must not alias the original: %+v", info)
	}
}
