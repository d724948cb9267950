package sink

import (
	"context"
	"errors"
	"fmt"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/storage"
)

// StoreSink persists events into a SwapEventStore.
// A signature that was already stored is not an error: the same transaction
// can be delivered again after a reconnect.
type StoreSink struct {
	store storage.SwapEventStore
}

// NewStoreSink creates a sink backed by store.
func NewStoreSink(store storage.SwapEventStore) *StoreSink {
	return &StoreSink{store: store}
}

// Emit inserts e.
func (s *StoreSink) Emit(ctx context.Context, e *domain.SwapEvent) error {
	if err := s.store.Insert(ctx, e); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("store swap event %s: %w", e.Signature, err)
	}
	return nil
}
