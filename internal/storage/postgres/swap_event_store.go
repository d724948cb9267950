package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

// Insert adds a new swap event. Returns ErrDuplicateKey if the signature exists.
func (s *SwapEventStore) Insert(ctx context.Context, e *domain.SwapEvent) error {
	if e == nil || e.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO swap_events (
			signature, slot, source, trader, pool, pool_name, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Signature,
		int64(e.Slot),
		string(e.Source),
		e.Trader,
		e.Pool,
		e.PoolName,
		e.DetectedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap event: %w", err)
	}
	return nil
}

// GetBySignature retrieves an event by transaction signature.
func (s *SwapEventStore) GetBySignature(ctx context.Context, signature string) (*domain.SwapEvent, error) {
	query := `
		SELECT signature, slot, source, trader, pool, pool_name, detected_at
		FROM swap_events
		WHERE signature = $1
	`

	rows, err := s.pool.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("get swap event by signature: %w", err)
	}
	defer rows.Close()

	events, err := scanSwapEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events[0], nil
}

// GetBySlotRange retrieves events with slot in [from, to), ordered by (slot, signature).
func (s *SwapEventStore) GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SwapEvent, error) {
	query := `
		SELECT signature, slot, source, trader, pool, pool_name, detected_at
		FROM swap_events
		WHERE slot >= $1 AND slot < $2
		ORDER BY slot ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(from), int64(to))
	if err != nil {
		return nil, fmt.Errorf("get swap events by slot range: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// CountBySource returns the number of stored events per source for a pool.
func (s *SwapEventStore) CountBySource(ctx context.Context, pool string) (map[domain.Source]uint64, error) {
	query := `
		SELECT source, COUNT(*)
		FROM swap_events
		WHERE pool = $1
		GROUP BY source
	`

	rows, err := s.pool.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("count swap events by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Source]uint64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		counts[domain.Source(source)] = uint64(count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source count rows: %w", err)
	}

	return counts, nil
}

// scanSwapEvents scans multiple rows into a slice of SwapEvent.
func scanSwapEvents(rows pgx.Rows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent

	for rows.Next() {
		var e domain.SwapEvent
		var slot int64
		var source string

		err := rows.Scan(
			&e.Signature,
			&slot,
			&source,
			&e.Trader,
			&e.Pool,
			&e.PoolName,
			&e.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap event row: %w", err)
		}

		e.Slot = uint64(slot)
		e.Source = domain.Source(source)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap event rows: %w", err)
	}

	return events, nil
}
