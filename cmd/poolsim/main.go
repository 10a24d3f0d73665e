package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolsim",
		Short:        "Concentrated liquidity pool simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scenario file through a pool",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("scenario", "", "scenario JSON path")
	simulateCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for event persistence")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate a recorded event stream into window metrics",
		RunE:  runReport,
	}

	reportCmd.Flags().String("input", "./data/events.jsonl", "events JSONL path")
	reportCmd.Flags().Uint32("window", 3600, "window size in seconds")
	reportCmd.Flags().Uint32("fee", 3000, "pool fee tier in hundredths of a bip")
	reportCmd.Flags().Int("batch-size", 1000, "windows per sink batch")
	reportCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for metrics persistence")
	reportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(reportCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a hypothetical swap against a scenario's final state",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("scenario", "", "scenario JSON path")
	quoteCmd.Flags().Bool("zero-for-one", true, "swap token0 for token1")
	quoteCmd.Flags().String("amount", "", "amount specified (positive exact input, negative exact output)")
	quoteCmd.Flags().String("sqrt-price-limit", "", "sqrt price limit in Q64.96, empty means no limit")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print tick and price conversions",
		RunE:  runInfo,
	}

	infoCmd.Flags().Int64("tick", 0, "tick to convert to a sqrt price")
	infoCmd.Flags().String("sqrt-price-x96", "", "sqrt price in Q64.96 to convert to a tick")
	infoCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(infoCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
