package monitor

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamEnded is returned by Session.Run when the provider closes the
// stream cleanly.
var ErrStreamEnded = errors.New("stream ended by provider")

// ConnectionError reports that the transport could not be opened.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection failed: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// SubscribeError reports that the subscription request was not accepted.
type SubscribeError struct {
	Err error
}

func (e *SubscribeError) Error() string { return fmt.Sprintf("subscribe failed: %v", e.Err) }
func (e *SubscribeError) Unwrap() error { return e.Err }

// StreamError reports a broken stream after a successful subscribe.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string { return fmt.Sprintf("stream failed: %v", e.Err) }
func (e *StreamError) Unwrap() error { return e.Err }

// FrameProcessingError describes a single frame that could not be handled.
// It is logged and counted, never returned from Run.
type FrameProcessingError struct {
	Signature string
	Err       error
}

func (e *FrameProcessingError) Error() string {
	if e.Signature == "" {
		return fmt.Sprintf("process frame: %v", e.Err)
	}
	return fmt.Sprintf("process frame %s: %v", e.Signature, e.Err)
}

func (e *FrameProcessingError) Unwrap() error { return e.Err }

// Termination causes used for metrics and logs.
const (
	causeConnection = "connection"
	causeSubscribe  = "subscribe"
	causeStream     = "stream"
	causeEnded      = "ended"
	causeCanceled   = "canceled"
	causeUnknown    = "unknown"
)

// terminationCause classifies the error returned by Session.Run.
func terminationCause(err error) string {
	var (
		connErr   *ConnectionError
		subErr    *SubscribeError
		streamErr *StreamError
	)
	switch {
	case errors.As(err, &connErr):
		return causeConnection
	case errors.As(err, &subErr):
		return causeSubscribe
	case errors.As(err, &streamErr):
		return causeStream
	case errors.Is(err, ErrStreamEnded):
		return causeEnded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return causeCanceled
	default:
		return causeUnknown
	}
}
