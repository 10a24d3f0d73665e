package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"liquidityEngine/internal/model"
)

// UpsertWindowMetrics inserts or updates window metrics keyed by pool,
// window size, and window start.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_secs, window_start, window_end,
				swap_count, mint_count, burn_count, flash_count,
				volume0, volume1, fee0, fee1, fee_rate0, fee_rate1,
				end_sqrt_price_x96, end_tick, end_liquidity,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, now(), now()
			)
			ON CONFLICT (pool_address, window_size_secs, window_start)
			DO UPDATE SET
				window_end = EXCLUDED.window_end,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				flash_count = EXCLUDED.flash_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				fee_rate0 = EXCLUDED.fee_rate0,
				fee_rate1 = EXCLUDED.fee_rate1,
				end_sqrt_price_x96 = EXCLUDED.end_sqrt_price_x96,
				end_tick = EXCLUDED.end_tick,
				end_liquidity = EXCLUDED.end_liquidity,
				updated_at = now()
		`,
			m.Pool,
			int64(m.WindowSizeSecs),
			int64(m.WindowStart),
			int64(m.WindowEnd),
			int64(m.SwapCount),
			int64(m.MintCount),
			int64(m.BurnCount),
			int64(m.FlashCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			m.FeeRate0,
			m.FeeRate1,
			m.EndSqrtPriceX96,
			m.EndTick,
			m.EndLiquidity,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates pool metadata records.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				address, token0, token1, fee, tick_spacing, owner,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				owner = EXCLUDED.owner,
				updated_at = now()
		`,
			p.Address,
			p.Token0,
			p.Token1,
			int64(p.Fee),
			int64(p.TickSpacing),
			p.Owner,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// MetricsSink adapts a Store to the synchronous window batch interface using
// a fixed context.
type MetricsSink struct {
	ctx   context.Context
	store *Store
}

func (s *Store) MetricsSink(ctx context.Context) *MetricsSink {
	return &MetricsSink{ctx: ctx, store: s}
}

func (s *MetricsSink) PutWindowBatch(metrics []model.WindowMetrics) error {
	return s.store.UpsertWindowMetrics(s.ctx, metrics)
}
