package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"liquidityEngine/internal/model"
)

type captureSink struct {
	batches [][]model.WindowMetrics
}

func (s *captureSink) PutWindowBatch(metrics []model.WindowMetrics) error {
	batch := make([]model.WindowMetrics, len(metrics))
	copy(batch, metrics)
	s.batches = append(s.batches, batch)
	return nil
}

func writeEvents(t *testing.T, events []model.PoolEvent) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			t.Fatalf("encode event: %v", err)
		}
	}
	return path
}

const reportPool = "0xcccccccccccccccccccccccccccccccccccccccc"

func TestReporterWindows(t *testing.T) {
	events := []model.PoolEvent{
		{
			Sequence: 1, Pool: reportPool, Timestamp: 100, EventName: "Initialize",
			Decoded: model.InitializeEventData{SqrtPriceX96: "79228162514264337593543950336", Tick: 0},
		},
		{
			Sequence: 2, Pool: reportPool, Timestamp: 110, EventName: "Mint",
			Decoded: model.MintEventData{Amount: "1000000", Amount0: "9996", Amount1: "1000", TickLower: -887220, TickUpper: 887220},
		},
		{
			Sequence: 3, Pool: reportPool, Timestamp: 120, EventName: "Swap",
			Decoded: model.SwapEventData{
				Amount0: "1000000", Amount1: "-996000",
				SqrtPriceX96: "79228000000000000000000000000", Liquidity: "1000000", Tick: -1,
			},
		},
		{
			Sequence: 4, Pool: reportPool, Timestamp: 130, EventName: "Flash",
			Decoded: model.FlashEventData{Amount0: "100000", Amount1: "0", Paid0: "100300", Paid1: "0"},
		},
		// Next window.
		{
			Sequence: 5, Pool: reportPool, Timestamp: 620, EventName: "Burn",
			Decoded: model.BurnEventData{Amount: "1000000", TickLower: -887220, TickUpper: 887220},
		},
	}

	sink := &captureSink{}
	reporter := NewReporter(Config{WindowSeconds: 600, Fee: 3000}, sink, nil)
	if err := reporter.Run(context.Background(), writeEvents(t, events)); err != nil {
		t.Fatalf("run: %v", err)
	}

	var all []model.WindowMetrics
	for _, batch := range sink.batches {
		all = append(all, batch...)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(all))
	}

	first := all[0]
	if first.WindowStart != 0 || first.WindowEnd != 600 {
		t.Fatalf("window bounds mismatch: [%d,%d)", first.WindowStart, first.WindowEnd)
	}
	if first.SwapCount != 1 || first.MintCount != 1 || first.FlashCount != 1 || first.BurnCount != 0 {
		t.Fatalf("counts mismatch: %+v", first)
	}
	if first.Volume0 != "1000000" || first.Volume1 != "996000" {
		t.Fatalf("volume mismatch: %s / %s", first.Volume0, first.Volume1)
	}
	// Swap fee approximation 3000 on 1000000 plus the exact flash fee of 300.
	if first.Fee0 != "3300" {
		t.Fatalf("fee0 mismatch: %s", first.Fee0)
	}
	if first.Fee1 != "0" {
		t.Fatalf("fee1 mismatch: %s", first.Fee1)
	}
	if first.FeeRate0 == nil || first.FeeRate1 != nil {
		t.Fatalf("fee rate presence mismatch: %v / %v", first.FeeRate0, first.FeeRate1)
	}
	if first.EndTick != -1 || first.EndLiquidity != "1000000" {
		t.Fatalf("end state mismatch: %d / %s", first.EndTick, first.EndLiquidity)
	}

	second := all[1]
	if second.WindowStart != 600 || second.BurnCount != 1 || second.SwapCount != 0 {
		t.Fatalf("second window mismatch: %+v", second)
	}
	if second.Volume0 != "0" || second.Fee0 != "0" || second.FeeRate0 != nil {
		t.Fatalf("empty window must report zeros: %+v", second)
	}
}

func TestReporterMultiPool(t *testing.T) {
	other := "0xdddddddddddddddddddddddddddddddddddddddd"
	events := []model.PoolEvent{
		{
			Sequence: 1, Pool: reportPool, Timestamp: 50, EventName: "Swap",
			Decoded: model.SwapEventData{Amount0: "100", Amount1: "-99", SqrtPriceX96: "1", Liquidity: "1", Tick: 0},
		},
		{
			Sequence: 1, Pool: other, Timestamp: 60, EventName: "Swap",
			Decoded: model.SwapEventData{Amount0: "-50", Amount1: "51", SqrtPriceX96: "2", Liquidity: "1", Tick: 1},
		},
	}

	sink := &captureSink{}
	reporter := NewReporter(Config{WindowSeconds: 600, Fee: 3000}, sink, nil)
	if err := reporter.Run(context.Background(), writeEvents(t, events)); err != nil {
		t.Fatalf("run: %v", err)
	}

	var all []model.WindowMetrics
	for _, batch := range sink.batches {
		all = append(all, batch...)
	}
	if len(all) != 2 {
		t.Fatalf("expected one window per pool, got %d", len(all))
	}
	byPool := make(map[string]model.WindowMetrics)
	for _, m := range all {
		byPool[m.Pool] = m
	}
	if byPool[reportPool].Volume0 != "100" || byPool[other].Volume1 != "51" {
		t.Fatalf("per-pool volumes mismatch: %+v", byPool)
	}
}

func TestReporterConfigErrors(t *testing.T) {
	path := writeEvents(t, []model.PoolEvent{{Sequence: 1, Pool: reportPool, Timestamp: 1, EventName: "Mint"}})

	if err := NewReporter(Config{WindowSeconds: 0}, &captureSink{}, nil).Run(context.Background(), path); err == nil {
		t.Fatalf("zero window must fail")
	}
	if err := NewReporter(Config{WindowSeconds: 600}, nil, nil).Run(context.Background(), path); err == nil {
		t.Fatalf("nil sink must fail")
	}
	if err := NewReporter(Config{WindowSeconds: 600}, &captureSink{}, nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatalf("missing input must fail")
	}
}

func TestAccumulatorSkipsUnknownEvents(t *testing.T) {
	acc := NewAccumulator(reportPool, 0, 600)
	record := model.EventRecord{Pool: reportPool, Timestamp: 10, EventName: "SetFeeProtocol", Decoded: []byte(`{}`)}
	if err := acc.AddEvent(record, 3000); err != nil {
		t.Fatalf("unknown event: %v", err)
	}
	if acc.SwapCount != 0 || acc.Volume0.Sign() != 0 {
		t.Fatalf("unknown event must not change totals")
	}
}

func TestAccumulatorBadPayload(t *testing.T) {
	acc := NewAccumulator(reportPool, 0, 600)
	record := model.EventRecord{Pool: reportPool, Timestamp: 10, EventName: "Swap", Decoded: []byte(`{"amount0":"abc"}`)}
	if err := acc.AddEvent(record, 3000); err == nil {
		t.Fatalf("bad amount must fail")
	}
}
