package storage

import (
	"context"

	"solana-pool-monitor/internal/domain"
)

// SwapEventStore provides access to swap_events storage.
// Events are keyed by transaction signature; the store is append-only.
type SwapEventStore interface {
	// Insert adds a new swap event. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, e *domain.SwapEvent) error

	// GetBySignature retrieves an event by transaction signature. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.SwapEvent, error)

	// GetBySlotRange retrieves events with slot in [from, to), ordered by (slot, signature).
	GetBySlotRange(ctx context.Context, from, to uint64) ([]*domain.SwapEvent, error)

	// CountBySource returns the number of stored events per source for a pool.
	CountBySource(ctx context.Context, pool string) (map[domain.Source]uint64, error)
}
