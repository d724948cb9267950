// Package sink delivers detected swap events to their destinations.
//
// Sinks are called from the session's dispatch goroutine. Slow destinations
// should be wrapped in Async so a stalled backend never delays keepalive acks.
package sink

import (
	"context"
	"errors"

	"solana-pool-monitor/internal/domain"
)

// Sink receives swap events.
type Sink interface {
	Emit(ctx context.Context, e *domain.SwapEvent) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, e *domain.SwapEvent) error

// Emit calls f(ctx, e).
func (f Func) Emit(ctx context.Context, e *domain.SwapEvent) error {
	return f(ctx, e)
}

// Multi emits each event to every sink in order.
// All sinks are attempted; their errors are joined.
type Multi []Sink

// Emit delivers e to every sink.
func (m Multi) Emit(ctx context.Context, e *domain.SwapEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Sink = Func(func(context.Context, *domain.SwapEvent) error { return nil })
