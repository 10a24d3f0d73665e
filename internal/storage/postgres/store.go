// Package postgres persists simulator event streams to Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityEngine/internal/model"
)

// Store provides Postgres persistence for pool events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutEventBatch inserts or updates events keyed by pool and sequence.
func (s *Store) PutEventBatch(ctx context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		decoded, err := json.Marshal(event.Decoded)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, sequence, event_ts, event_name, decoded, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (pool_address, sequence)
			DO UPDATE SET
				event_ts = EXCLUDED.event_ts,
				event_name = EXCLUDED.event_name,
				decoded = EXCLUDED.decoded,
				updated_at = now()
		`,
			event.Pool,
			int64(event.Sequence),
			int64(event.Timestamp),
			event.EventName,
			decoded,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// EventSink adapts a Store to the synchronous batch interface using a fixed
// context.
type EventSink struct {
	ctx   context.Context
	store *Store
}

func (s *Store) Sink(ctx context.Context) *EventSink {
	return &EventSink{ctx: ctx, store: s}
}

func (s *EventSink) PutEventBatch(events []model.PoolEvent) error {
	return s.store.PutEventBatch(s.ctx, events)
}
