package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityEngine/internal/model"
)

// Sink receives finished window metric batches.
type Sink interface {
	PutWindowBatch(metrics []model.WindowMetrics) error
}

// MultiSink fans a batch out to several sinks, stopping at the first failure.
type MultiSink []Sink

func (m MultiSink) PutWindowBatch(metrics []model.WindowMetrics) error {
	for _, sink := range m {
		if err := sink.PutWindowBatch(metrics); err != nil {
			return err
		}
	}
	return nil
}

// Config controls report generation.
type Config struct {
	WindowSeconds uint32
	Fee           uint32
	BatchSize     int
}

// Reporter aggregates a recorded event stream into pool window metrics.
type Reporter struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewReporter(cfg Config, sink Sink, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run reads an events JSONL file and writes window metrics to the sink.
// Events must be ordered by timestamp within each pool, which the recorder
// guarantees.
func (r *Reporter) Run(ctx context.Context, inputPath string) error {
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.WindowMetrics, 0, r.cfg.BatchSize)
	var total, windows, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			r.logger.Warn("decode event", zap.Error(err))
			continue
		}

		windowStart := record.Timestamp - record.Timestamp%r.cfg.WindowSeconds
		windowEnd := windowStart + r.cfg.WindowSeconds

		key := poolKey(record.Pool)
		acc := r.accumulators[key]
		if acc == nil {
			acc = NewAccumulator(record.Pool, windowStart, windowEnd)
			r.accumulators[key] = acc
		} else if acc.WindowStart != windowStart {
			batch = append(batch, r.finishWindow(acc))
			windows++
			acc = NewAccumulator(record.Pool, windowStart, windowEnd)
			r.accumulators[key] = acc
		}

		if err := acc.AddEvent(record, r.cfg.Fee); err != nil {
			failed++
			r.logger.Warn("aggregate event",
				zap.Error(err),
				zap.String("pool", record.Pool),
				zap.String("event", record.EventName),
			)
			continue
		}

		if len(batch) >= r.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.sink.PutWindowBatch(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range r.accumulators {
		batch = append(batch, r.finishWindow(acc))
		windows++
	}
	r.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := r.sink.PutWindowBatch(batch); err != nil {
			return err
		}
	}

	r.logger.Info("report complete",
		zap.Int("events", total),
		zap.Int("windows", windows),
		zap.Int("failed", failed),
	)
	return nil
}

func (r *Reporter) finishWindow(acc *Accumulator) model.WindowMetrics {
	return model.WindowMetrics{
		Pool:            acc.Pool,
		WindowSizeSecs:  r.cfg.WindowSeconds,
		WindowStart:     acc.WindowStart,
		WindowEnd:       acc.WindowEnd,
		SwapCount:       acc.SwapCount,
		MintCount:       acc.MintCount,
		BurnCount:       acc.BurnCount,
		FlashCount:      acc.FlashCount,
		Volume0:         acc.Volume0.String(),
		Volume1:         acc.Volume1.String(),
		Fee0:            acc.Fee0.String(),
		Fee1:            acc.Fee1.String(),
		FeeRate0:        feeRate(acc.Fee0, acc.Volume0),
		FeeRate1:        feeRate(acc.Fee1, acc.Volume1),
		EndSqrtPriceX96: acc.EndSqrtPriceX96,
		EndTick:         acc.EndTick,
		EndLiquidity:    acc.EndLiquidity,
	}
}

// feeRate is fee income relative to traded volume on the same side. Nil when
// no fees accrued or no volume moved.
func feeRate(fee, volume *big.Int) *string {
	if fee.Sign() == 0 || volume.Sign() == 0 {
		return nil
	}
	rate := decimal.NewFromBigInt(fee, 0).
		DivRound(decimal.NewFromBigInt(volume, 0), 18).
		String()
	return &rate
}

func poolKey(address string) string {
	return strings.ToLower(address)
}
