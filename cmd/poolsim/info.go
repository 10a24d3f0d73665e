package main

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/tickmath"
)

func runInfo(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInfo(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	switch {
	case cfg.TickSet:
		if cfg.Tick < int64(tickmath.MinTick) || cfg.Tick > int64(tickmath.MaxTick) {
			return fmt.Errorf("tick %d out of range [%d, %d]", cfg.Tick, tickmath.MinTick, tickmath.MaxTick)
		}
		sqrtPrice, err := tickmath.SqrtRatioAtTick(int32(cfg.Tick))
		if err != nil {
			return err
		}
		fmt.Printf("tick:            %d\n", cfg.Tick)
		fmt.Printf("sqrt_price_x96:  %s\n", sqrtPrice.Dec())
		fmt.Printf("price:           %s\n", priceFromSqrtX96(sqrtPrice))
		return nil
	case cfg.SqrtPriceX96 != "":
		sqrtPrice, err := uint256.FromDecimal(cfg.SqrtPriceX96)
		if err != nil {
			return fmt.Errorf("bad sqrt price %q", cfg.SqrtPriceX96)
		}
		tick, err := tickmath.TickAtSqrtRatio(sqrtPrice)
		if err != nil {
			return err
		}
		fmt.Printf("sqrt_price_x96:  %s\n", sqrtPrice.Dec())
		fmt.Printf("tick:            %d\n", tick)
		fmt.Printf("price:           %s\n", priceFromSqrtX96(sqrtPrice))
		return nil
	default:
		return fmt.Errorf("one of --tick or --sqrt-price-x96 is required")
	}
}

// priceFromSqrtX96 renders the token1-per-token0 price implied by a Q64.96
// sqrt price: (s / 2^96)^2.
func priceFromSqrtX96(sqrtPriceX96 *uint256.Int) decimal.Decimal {
	s := sqrtPriceX96.ToBig()
	numerator := new(big.Int).Mul(s, s)
	denominator := new(big.Int).Lsh(big.NewInt(1), 192)
	return decimal.NewFromBigInt(numerator, 0).DivRound(decimal.NewFromBigInt(denominator, 0), 18)
}
