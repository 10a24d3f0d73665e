package position

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityEngine/internal/fixedpoint"
)

var owner = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestKeyOf(t *testing.T) {
	a := KeyOf(owner, -100, 100)
	b := KeyOf(owner, -100, 100)
	if a != b {
		t.Fatalf("key derivation must be deterministic")
	}

	if KeyOf(owner, -100, 101) == a {
		t.Fatalf("different upper must give a different key")
	}
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if KeyOf(other, -100, 100) == a {
		t.Fatalf("different owner must give a different key")
	}
}

func TestGetMaterializesZero(t *testing.T) {
	l := New()
	info := l.Get(owner, -10, 10)
	if !info.Liquidity.IsZero() || !info.TokensOwed0.IsZero() {
		t.Fatalf("fresh position must be zero: %+v", info)
	}
	if l.Get(owner, -10, 10) != info {
		t.Fatalf("get must return the same record")
	}
}

func TestUpdatePokeEmpty(t *testing.T) {
	l := New()
	info := l.Get(owner, -10, 10)
	err := l.Update(info, big.NewInt(0), new(uint256.Int), new(uint256.Int))
	if !errors.Is(err, ErrZeroLiquidityPoke) {
		t.Fatalf("expected poke error, got %v", err)
	}
}

func TestUpdateAccruesFees(t *testing.T) {
	l := New()
	info := l.Get(owner, -10, 10)

	if err := l.Update(info, big.NewInt(100), new(uint256.Int), new(uint256.Int)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if info.Liquidity.Uint64() != 100 {
		t.Fatalf("liquidity mismatch: %s", info.Liquidity.Dec())
	}

	// One full Q128 unit of growth per unit of liquidity owes exactly the
	// liquidity amount.
	if err := l.Update(info, big.NewInt(0), fixedpoint.Q128, new(uint256.Int)); err != nil {
		t.Fatalf("poke: %v", err)
	}
	if info.TokensOwed0.Lo != 100 || info.TokensOwed0.Hi != 0 {
		t.Fatalf("owed0 mismatch: %s", info.TokensOwed0.String())
	}
	if !info.TokensOwed1.IsZero() {
		t.Fatalf("owed1 must stay zero")
	}
	if !info.FeeGrowthInside0LastX128.Eq(fixedpoint.Q128) {
		t.Fatalf("snapshot not advanced")
	}

	// A second poke with unchanged growth owes nothing more.
	if err := l.Update(info, big.NewInt(0), fixedpoint.Q128, new(uint256.Int)); err != nil {
		t.Fatalf("second poke: %v", err)
	}
	if info.TokensOwed0.Lo != 100 {
		t.Fatalf("owed0 must not double-count: %s", info.TokensOwed0.String())
	}
}

func TestUpdateLiquidityBounds(t *testing.T) {
	l := New()
	info := l.Get(owner, -10, 10)

	if err := l.Update(info, big.NewInt(50), new(uint256.Int), new(uint256.Int)); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := l.Update(info, big.NewInt(-51), new(uint256.Int), new(uint256.Int))
	if !errors.Is(err, ErrLiquidityOverflow) {
		t.Fatalf("expected overflow error on negative result, got %v", err)
	}

	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	err = l.Update(info, tooBig, new(uint256.Int), new(uint256.Int))
	if !errors.Is(err, ErrLiquidityOverflow) {
		t.Fatalf("expected overflow error past 2^128, got %v", err)
	}
}

func TestUpdateBurnToZeroKeepsOwed(t *testing.T) {
	l := New()
	info := l.Get(owner, -10, 10)

	if err := l.Update(info, big.NewInt(100), new(uint256.Int), new(uint256.Int)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.Update(info, big.NewInt(-100), fixedpoint.Q128, new(uint256.Int)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if !info.Liquidity.IsZero() {
		t.Fatalf("liquidity must reach zero")
	}
	if info.TokensOwed0.Lo != 100 {
		t.Fatalf("fees must survive the burn: %s", info.TokensOwed0.String())
	}
}
