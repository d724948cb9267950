package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/storage"
)

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data []*domain.SwapEvent
	keys map[string]int // signature -> index in data
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make([]*domain.SwapEvent, 0),
		keys: make(map[string]int),
	}
}

// Insert adds a new swap event. Returns ErrDuplicateKey if the signature exists.
func (s *SwapEventStore) Insert(_ context.Context, e *domain.SwapEvent) error {
	if e == nil || e.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[e.Signature]; ok {
		return storage.ErrDuplicateKey
	}

	// Store a copy
	copy := *e
	s.keys[e.Signature] = len(s.data)
	s.data = append(s.data, &copy)

	return nil
}

// GetBySignature retrieves an event by transaction signature.
func (s *SwapEventStore) GetBySignature(_ context.Context, signature string) (*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.keys[signature]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *s.data[idx]
	return &copy, nil
}

// GetBySlotRange retrieves events with slot in [from, to).
func (s *SwapEventStore) GetBySlotRange(_ context.Context, from, to uint64) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.Slot >= from && e.Slot < to {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortSwapEvents(result)

	return result, nil
}

// CountBySource returns the number of stored events per source for a pool.
func (s *SwapEventStore) CountBySource(_ context.Context, pool string) (map[domain.Source]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Source]uint64)
	for _, e := range s.data {
		if e.Pool == pool {
			counts[e.Source]++
		}
	}
	return counts, nil
}

// Len returns the number of stored events.
func (s *SwapEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// sortSwapEvents sorts events by (slot, signature).
func sortSwapEvents(events []*domain.SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Slot != events[j].Slot {
			return events[i].Slot < events[j].Slot
		}
		return events[i].Signature < events[j].Signature
	})
}

// Verify interface compliance at compile time.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)
