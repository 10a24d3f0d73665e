package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/pool"
	"liquidityEngine/internal/scenario"
	"liquidityEngine/internal/tickmath"
	"liquidityEngine/internal/vault"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}
	if cfg.AmountSpecified == "" {
		return fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(cfg.AmountSpecified, 10)
	if !ok || amount.Sign() == 0 {
		return fmt.Errorf("bad amount %q", cfg.AmountSpecified)
	}

	limit, err := parsePriceLimit(cfg.SqrtPriceLimitX96, cfg.ZeroForOne)
	if err != nil {
		return err
	}

	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}
	runner, err := scenario.NewRunner(s, nil, logger)
	if err != nil {
		return err
	}
	if err := runner.Run(); err != nil {
		return fmt.Errorf("replay scenario: %w", err)
	}
	if len(s.Accounts) == 0 {
		return fmt.Errorf("scenario has no funded accounts")
	}
	trader := s.Accounts[0].Address

	before := runner.Pool().Slot0()
	payer := &quotePayer{
		vault:    runner.Vault(),
		payer:    trader,
		poolAddr: s.Pool.Address,
		token0:   s.Pool.Token0,
		token1:   s.Pool.Token1,
	}
	amount0, amount1, err := runner.Pool().Swap(trader, trader, cfg.ZeroForOne, amount, limit, payer, nil)
	if err != nil {
		return fmt.Errorf("quote swap: %w", err)
	}
	after := runner.Pool().Slot0()

	logger.Debug("quote computed", zap.String("amount0", amount0.String()), zap.String("amount1", amount1.String()))

	fmt.Printf("amount0:       %s\n", amount0.String())
	fmt.Printf("amount1:       %s\n", amount1.String())
	fmt.Printf("price before:  %s (tick %d)\n", priceFromSqrtX96(before.SqrtPriceX96), before.Tick)
	fmt.Printf("price after:   %s (tick %d)\n", priceFromSqrtX96(after.SqrtPriceX96), after.Tick)
	return nil
}

// parsePriceLimit parses the limit flag, defaulting to one past the usable
// bound for the swap direction.
func parsePriceLimit(raw string, zeroForOne bool) (*uint256.Int, error) {
	if raw == "" {
		if zeroForOne {
			return new(uint256.Int).AddUint64(tickmath.MinSqrtRatio, 1), nil
		}
		return new(uint256.Int).SubUint64(tickmath.MaxSqrtRatio, 1), nil
	}
	limit, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("bad sqrt price limit %q", raw)
	}
	return limit, nil
}

// quotePayer settles swap callbacks from a single trading account.
type quotePayer struct {
	vault    *vault.Vault
	payer    common.Address
	poolAddr common.Address
	token0   common.Address
	token1   common.Address
}

var _ pool.PaymentCallback = (*quotePayer)(nil)

func (q *quotePayer) OnMintPayment(_, _ *uint256.Int, _ []byte) error {
	return fmt.Errorf("unexpected mint payment")
}

func (q *quotePayer) OnSwapPayment(delta0, delta1 *big.Int, _ []byte) error {
	if delta0.Sign() > 0 {
		owed, _ := uint256.FromBig(delta0)
		if err := q.vault.TransferFrom(q.token0, q.payer, q.poolAddr, owed); err != nil {
			return err
		}
	}
	if delta1.Sign() > 0 {
		owed, _ := uint256.FromBig(delta1)
		if err := q.vault.TransferFrom(q.token1, q.payer, q.poolAddr, owed); err != nil {
			return err
		}
	}
	return nil
}

func (q *quotePayer) OnFlashPayment(_, _ *uint256.Int, _ []byte) error {
	return fmt.Errorf("unexpected flash payment")
}
