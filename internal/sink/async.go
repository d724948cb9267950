package sink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/observability"
)

// DefaultBuffer is the queue length used when a non-positive buffer is given.
const DefaultBuffer = 1024

// Async decouples a sink from the caller with a bounded queue and one worker.
// Emit never blocks: when the queue is full the event is dropped and counted.
type Async struct {
	name   string
	inner  Sink
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *domain.SwapEvent
	done   chan struct{}
}

// NewAsync starts a worker that forwards queued events to inner.
func NewAsync(name string, inner Sink, buffer int, logger *zap.Logger) *Async {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Async{
		name:   name,
		inner:  inner,
		logger: logger.Named("sink").With(zap.String("sink", name)),
		queue:  make(chan *domain.SwapEvent, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit enqueues e. It returns nil even when the event is dropped.
func (a *Async) Emit(_ context.Context, e *domain.SwapEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		observability.RecordSinkDropped(a.name)
		return nil
	}

	select {
	case a.queue <- e:
	default:
		observability.RecordSinkDropped(a.name)
		a.logger.Warn("sink queue full, dropping event", zap.String("signature", e.Signature))
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
// If ctx expires first, the remaining events are abandoned.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)

	// Deliveries are not tied to the session context so that queued events
	// still flush during shutdown.
	ctx := context.Background()
	for e := range a.queue {
		if err := a.inner.Emit(ctx, e); err != nil {
			observability.RecordSinkError(a.name)
			a.logger.Error("emit failed",
				zap.String("signature", e.Signature),
				zap.Error(err),
			)
		}
	}
}
