package pool

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

func TestSetFeeProtocol(t *testing.T) {
	h := newHarness(t)
	h.initialize(priceOneX96)

	if err := h.pool.SetFeeProtocol(testTrader, 4, 4); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner: got %v", err)
	}
	for _, nibbles := range [][2]uint8{{1, 0}, {3, 4}, {11, 4}, {4, 255}} {
		err := h.pool.SetFeeProtocol(testOwner, nibbles[0], nibbles[1])
		if !errors.Is(err, ErrInvalidFeeProtocol) {
			t.Fatalf("nibbles %v: got %v", nibbles, err)
		}
	}

	if err := h.pool.SetFeeProtocol(testOwner, 4, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := h.pool.Slot0().FeeProtocol; got != 4|10<<4 {
		t.Fatalf("packed fee protocol mismatch: %d", got)
	}

	// Zero turns the protocol share off again.
	if err := h.pool.SetFeeProtocol(testOwner, 0, 0); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := h.pool.Slot0().FeeProtocol; got != 0 {
		t.Fatalf("fee protocol not cleared: %d", got)
	}
}

func TestCollectProtocol(t *testing.T) {
	h := newHarness(t)
	h.initialize(priceOneX96)
	h.mint(testLP, minUsableTick, maxUsableTick, uint256.NewInt(1_000_000_000_000_000_000))
	if err := h.pool.SetFeeProtocol(testOwner, 4, 4); err != nil {
		t.Fatalf("set fee protocol: %v", err)
	}
	h.swap(true, big.NewInt(1_000_000), limitDown())

	if _, _, err := h.pool.CollectProtocol(testTrader, testTrader, uint128.Max, uint128.Max); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner: got %v", err)
	}

	accrued, _ := h.pool.ProtocolFees()
	if accrued.IsZero() {
		t.Fatalf("swap must accrue protocol fees")
	}

	// A partial request pays out in full.
	got0, got1, err := h.pool.CollectProtocol(testOwner, testOwner, uint128.From64(10), uint128.Max)
	if err != nil {
		t.Fatalf("partial collect: %v", err)
	}
	if !got0.Equals64(10) || !got1.IsZero() {
		t.Fatalf("partial collect mismatch: %s / %s", got0.String(), got1.String())
	}

	// Draining the accumulator leaves one unit behind.
	remaining, _ := h.pool.ProtocolFees()
	got0, _, err = h.pool.CollectProtocol(testOwner, testOwner, uint128.Max, uint128.Max)
	if err != nil {
		t.Fatalf("full collect: %v", err)
	}
	if !got0.Equals(remaining.Sub64(1)) {
		t.Fatalf("full collect mismatch: %s of %s", got0.String(), remaining.String())
	}
	fees0, _ := h.pool.ProtocolFees()
	if !fees0.Equals64(1) {
		t.Fatalf("one unit must remain: %s", fees0.String())
	}

	ownerBalance, _ := h.vault.BalanceOf(testToken0, testOwner)
	if ownerBalance.ToBig().Cmp(accrued.Sub64(1).Big()) != 0 {
		t.Fatalf("owner payout mismatch: %s", ownerBalance.Dec())
	}
}

func TestCollectProtocolEmpty(t *testing.T) {
	h := newHarness(t)
	h.initialize(priceOneX96)

	got0, got1, err := h.pool.CollectProtocol(testOwner, testOwner, uint128.Max, uint128.Max)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !got0.IsZero() || !got1.IsZero() {
		t.Fatalf("empty accumulators must pay nothing: %s / %s", got0.String(), got1.String())
	}
}
