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
	"liquidityEngine/internal/report"
	"liquidityEngine/internal/storage/postgres"
)

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := report.MultiSink{printSink{}}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store.MetricsSink(ctx))
	}

	logger.Info("report start",
		zap.String("input", cfg.Input),
		zap.Uint32("window_secs", cfg.WindowSeconds),
		zap.Uint32("fee", cfg.Fee),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	reporter := report.NewReporter(report.Config{
		WindowSeconds: cfg.WindowSeconds,
		Fee:           cfg.Fee,
		BatchSize:     cfg.BatchSize,
	}, sinks, logger)

	return reporter.Run(ctx, cfg.Input)
}

// printSink writes one summary line per finished window to stdout.
type printSink struct{}

func (printSink) PutWindowBatch(metrics []model.WindowMetrics) error {
	for _, m := range metrics {
		fmt.Printf("pool=%s window=[%d,%d) swaps=%d mints=%d burns=%d flashes=%d volume0=%s volume1=%s fee0=%s fee1=%s tick=%d\n",
			m.Pool,
			m.WindowStart,
			m.WindowEnd,
			m.SwapCount,
			m.MintCount,
			m.BurnCount,
			m.FlashCount,
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			m.EndTick,
		)
	}
	return nil
}
