package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityEngine/internal/config"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/scenario"
	"liquidityEngine/internal/storage"
	"liquidityEngine/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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

	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		backends = append(backends, store.Sink(ctx))

		pool := model.Pool{
			Address:     s.Pool.Address.Hex(),
			Token0:      s.Pool.Token0.Hex(),
			Token1:      s.Pool.Token1.Hex(),
			Fee:         s.Pool.Fee,
			TickSpacing: s.Pool.TickSpacing,
			Owner:       s.Pool.Owner.Hex(),
		}
		if err := store.UpsertPools(ctx, []model.Pool{pool}); err != nil {
			return fmt.Errorf("register pool: %w", err)
		}
	}
	recorder := storage.NewRecorder(backends)

	runner, err := scenario.NewRunner(s, recorder, logger)
	if err != nil {
		return err
	}

	logger.Info("simulation start",
		zap.String("scenario", cfg.Scenario),
		zap.Int("steps", len(s.Steps)),
		zap.Int("accounts", len(s.Accounts)),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	runErr := runner.Run()
	if err := recorder.Flush(); err != nil {
		logger.Error("flush events", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}

	slot0 := runner.Pool().Slot0()
	logger.Info("simulation done",
		zap.String("sqrt_price_x96", slot0.SqrtPriceX96.Dec()),
		zap.Int32("tick", slot0.Tick),
		zap.String("liquidity", runner.Pool().Liquidity().Dec()),
	)
	return nil
}
