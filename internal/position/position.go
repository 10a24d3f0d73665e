// Package position ledgers per-owner range liquidity and accrued fees.
package position

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/fixedpoint"
)

var (
	ErrZeroLiquidityPoke = errors.New("position: no-op update on empty position")
	ErrLiquidityOverflow = errors.New("position: liquidity exceeds 128 bits")
)

// Key identifies a position by the hash of owner, lower, and upper.
type Key [32]byte

// KeyOf derives the ledger key for (owner, lower, upper).
func KeyOf(owner common.Address, lower, upper int32) Key {
	var buf [28]byte
	copy(buf[:20], owner.Bytes())
	binary.BigEndian.PutUint32(buf[20:24], uint32(lower))
	binary.BigEndian.PutUint32(buf[24:28], uint32(upper))
	var key Key
	copy(key[:], crypto.Keccak256(buf[:]))
	return key
}

// Info is a position record. Liquidity may reach zero while TokensOwed stays
// non-zero until collected.
type Info struct {
	Liquidity                *uint256.Int
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	TokensOwed0              uint128.Uint128
	TokensOwed1              uint128.Uint128
}

// Ledger maps position keys to records.
type Ledger map[Key]*Info

// New returns an empty ledger.
func New() Ledger {
	return make(Ledger)
}

// Get materializes the record for (owner, lower, upper); a missing record is
// all zeros.
func (l Ledger) Get(owner common.Address, lower, upper int32) *Info {
	key := KeyOf(owner, lower, upper)
	info, ok := l[key]
	if !ok {
		info = &Info{
			Liquidity:                new(uint256.Int),
			FeeGrowthInside0LastX128: new(uint256.Int),
			FeeGrowthInside1LastX128: new(uint256.Int),
		}
		l[key] = info
	}
	return info
}

// Update credits fees accrued since the last snapshot and applies the
// liquidity delta. Owed tokens accumulate with 128-bit wrap-around: the
// contract is that owners collect before the accumulator would overflow.
func (l Ledger) Update(info *Info, liquidityDelta *big.Int, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) error {
	if liquidityDelta.Sign() == 0 && info.Liquidity.IsZero() {
		return ErrZeroLiquidityPoke
	}

	owed0, err := owedDelta(feeGrowthInside0X128, info.FeeGrowthInside0LastX128, info.Liquidity)
	if err != nil {
		return err
	}
	owed1, err := owedDelta(feeGrowthInside1X128, info.FeeGrowthInside1LastX128, info.Liquidity)
	if err != nil {
		return err
	}

	if liquidityDelta.Sign() != 0 {
		next := new(big.Int).Add(info.Liquidity.ToBig(), liquidityDelta)
		if next.Sign() < 0 || next.BitLen() > 128 {
			return ErrLiquidityOverflow
		}
		info.Liquidity, _ = uint256.FromBig(next)
	}

	info.FeeGrowthInside0LastX128.Set(feeGrowthInside0X128)
	info.FeeGrowthInside1LastX128.Set(feeGrowthInside1X128)
	info.TokensOwed0 = info.TokensOwed0.AddWrap(owed0)
	info.TokensOwed1 = info.TokensOwed1.AddWrap(owed1)
	return nil
}

func owedDelta(inside, insideLast, liquidity *uint256.Int) (uint128.Uint128, error) {
	growth := new(uint256.Int).Sub(inside, insideLast)
	owed, err := fixedpoint.MulDiv(growth, liquidity, fixedpoint.Q128)
	if err != nil {
		return uint128.Zero, err
	}
	// Truncate to 128 bits; overflow wraps by contract.
	owed.And(owed, fixedpoint.MaxUint128)
	return uint128.FromBig(owed.ToBig()), nil
}
