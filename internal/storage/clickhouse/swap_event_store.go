package clickhouse

import (
	"context"
	"fmt"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using ClickHouse.
// MergeTree does not enforce uniqueness, so Insert checks for the signature first.
type SwapEventStore struct {
	conn *Conn
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(conn *Conn) *SwapEventStore {
	return &SwapEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

// Insert adds a new swap event. Returns ErrDuplicateKey if the signature exists.
func (s *SwapEventStore) Insert(ctx context.Context, e *domain.SwapEvent) error {
	if e == nil || e.Signature == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.Signature)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO swap_events (
			signature, slot, source, trader, pool, pool_name, detected_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		e.Signature, e.Slot, string(e.Source), e.Trader, e.Pool, e.PoolName, e.DetectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySignature retrieves an event by transaction signature.
func (s *SwapEventStore) GetBySignature(ctx context.Context, signature string) (*domain.SwapEvent, error) {
	query := `
		SELECT signature, slot, source, trader, pool, pool_name, detected_at
		FROM swap_events FINAL
		WHERE signature = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("query by signature: %w", err)
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
		FROM swap_events FINAL
		WHERE slot >= ? AND slot < ?
		ORDER BY slot ASC, signature ASC
	`

	rows, err := s.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query by slot range: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// CountBySource returns the number of stored events per source for a pool.
func (s *SwapEventStore) CountBySource(ctx context.Context, pool string) (map[domain.Source]uint64, error) {
	query := `
		SELECT source, count(*)
		FROM swap_events FINAL
		WHERE pool = ?
		GROUP BY source
	`

	rows, err := s.conn.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Source]uint64)
	for rows.Next() {
		var source string
		var count uint64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		counts[domain.Source(source)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source count rows: %w", err)
	}

	return counts, nil
}

// exists checks if an event with the given signature exists.
func (s *SwapEventStore) exists(ctx context.Context, signature string) (bool, error) {
	query := `SELECT count(*) FROM swap_events WHERE signature = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, signature).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSwapEvents scans multiple rows.
func scanSwapEvents(rows chRows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent

	for rows.Next() {
		var e domain.SwapEvent
		var source string

		err := rows.Scan(
			&e.Signature, &e.Slot, &source, &e.Trader, &e.Pool, &e.PoolName, &e.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap event row: %w", err)
		}

		e.Source = domain.Source(source)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap event rows: %w", err)
	}

	return events, nil
}
