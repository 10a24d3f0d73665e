// Package report aggregates recorded pool event streams into fixed time
// window metrics.
package report

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"liquidityEngine/internal/model"
)

// Accumulator holds aggregate values for one pool window. Volumes are sums of
// absolute swap amounts; fees combine the swap fee approximation with exact
// flash fees.
type Accumulator struct {
	Pool        string
	WindowStart uint32
	WindowEnd   uint32
	SwapCount   uint64
	MintCount   uint64
	BurnCount   uint64
	FlashCount  uint64
	Volume0     *big.Int
	Volume1     *big.Int
	Fee0        *big.Int
	Fee1        *big.Int

	EndSqrtPriceX96 string
	EndTick         int32
	EndLiquidity    string
}

func NewAccumulator(pool string, windowStart, windowEnd uint32) *Accumulator {
	return &Accumulator{
		Pool:        pool,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
	}
}

// AddEvent folds one event record into the window. feeRate is the pool's fee
// tier in hundredths of a bip, used to approximate swap fees from the input
// amount.
func (a *Accumulator) AddEvent(record model.EventRecord, feeRate uint32) error {
	switch strings.ToLower(record.EventName) {
	case "swap":
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap, feeRate)
	case "mint":
		a.MintCount++
		return nil
	case "burn":
		a.BurnCount++
		return nil
	case "flash":
		var flash model.FlashEventData
		if err := json.Unmarshal(record.Decoded, &flash); err != nil {
			return fmt.Errorf("decode flash: %w", err)
		}
		return a.applyFlash(flash)
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.SwapEventData, feeRate uint32) error {
	amount0, err := parseBigInt(swap.Amount0)
	if err != nil {
		return err
	}
	amount1, err := parseBigInt(swap.Amount1)
	if err != nil {
		return err
	}

	absAdd(a.Volume0, amount0)
	absAdd(a.Volume1, amount1)

	if feeRate > 0 {
		if amount0.Sign() > 0 {
			a.Fee0.Add(a.Fee0, feeFromAmount(amount0, feeRate))
		} else if amount1.Sign() > 0 {
			a.Fee1.Add(a.Fee1, feeFromAmount(amount1, feeRate))
		}
	}

	a.EndSqrtPriceX96 = swap.SqrtPriceX96
	a.EndTick = swap.Tick
	a.EndLiquidity = swap.Liquidity
	a.SwapCount++
	return nil
}

func (a *Accumulator) applyFlash(flash model.FlashEventData) error {
	fee0, err := flashFee(flash.Paid0, flash.Amount0)
	if err != nil {
		return err
	}
	fee1, err := flashFee(flash.Paid1, flash.Amount1)
	if err != nil {
		return err
	}
	a.Fee0.Add(a.Fee0, fee0)
	a.Fee1.Add(a.Fee1, fee1)
	a.FlashCount++
	return nil
}

func flashFee(paid, amount string) (*big.Int, error) {
	paidInt, err := parseBigInt(paid)
	if err != nil {
		return nil, err
	}
	amountInt, err := parseBigInt(amount)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Sub(paidInt, amountInt)
	if fee.Sign() < 0 {
		fee.SetInt64(0)
	}
	return fee, nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	abs := new(big.Int).Abs(value)
	target.Add(target, abs)
}

func feeFromAmount(amountIn *big.Int, feeRate uint32) *big.Int {
	fee := new(big.Int).Abs(amountIn)
	fee.Mul(fee, big.NewInt(int64(feeRate)))
	fee.Div(fee, big.NewInt(1_000_000))
	return fee
}
