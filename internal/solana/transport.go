package solana

import (
	"context"
	"errors"

	"solana-pool-monitor/internal/domain"
)

// ErrSubscriptionRejected is wrapped by the FrameError delivered when the
// provider refuses a subscription request.
var ErrSubscriptionRejected = errors.New("subscription rejected")

// Transport opens duplex streams to a transaction data provider.
type Transport interface {
	// Open establishes a new stream. The caller owns the returned Stream.
	Open(ctx context.Context) (Stream, error)
}

// Stream is one live connection to the provider.
// Recv must be called from a single goroutine; AckProbe and Subscribe may be
// called from that same goroutine between Recv calls.
type Stream interface {
	// Subscribe sends the transaction subscription request.
	Subscribe(ctx context.Context, req SubscribeRequest) error

	// AckProbe answers a keepalive probe with the same id.
	AckProbe(ctx context.Context, id uint64) error

	// Recv blocks for the next frame in arrival order. Connection failures are
	// reported as FrameError and remote closes as FrameEnd; the returned error
	// is non-nil only when ctx is done.
	Recv(ctx context.Context) (Frame, error)

	// Close closes the connection. Safe to call more than once.
	Close() error
}

// SubscribeRequest describes a transaction subscription.
type SubscribeRequest struct {
	Tag             string // filter name echoed on matching notifications
	AccountInclude  []string
	AccountExclude  []string
	AccountRequired []string
	Commitment      domain.Commitment
}

// NewSubscribeRequest builds the request for a single-account criterion.
func NewSubscribeRequest(c domain.SubscriptionCriterion) SubscribeRequest {
	return SubscribeRequest{
		Tag:             c.Tag,
		AccountInclude:  []string{c.Account.String()},
		AccountExclude:  []string{},
		AccountRequired: []string{},
		Commitment:      c.Commitment,
	}
}

// FrameKind identifies which variant of Frame is populated.
type FrameKind int

const (
	// FrameKeepAlive is a liveness probe that must be acknowledged.
	FrameKeepAlive FrameKind = iota + 1
	// FrameRecord carries a transaction notification.
	FrameRecord
	// FrameError reports a broken connection or a provider error. Terminal.
	FrameError
	// FrameEnd reports a clean remote close. Terminal.
	FrameEnd
)

// String returns the string representation of FrameKind.
func (k FrameKind) String() string {
	switch k {
	case FrameKeepAlive:
		return "keepalive"
	case FrameRecord:
		return "record"
	case FrameError:
		return "error"
	case FrameEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Frame is one message received from the stream.
type Frame struct {
	Kind FrameKind

	// FrameKeepAlive
	ProbeID uint64

	// FrameRecord. Record is nil when the payload could not be decoded;
	// DecodeErr then holds the reason.
	FilterTags []string
	Record     *domain.TransactionRecord
	DecodeErr  error

	// FrameError
	Err error
}

// KeepAliveFrame builds a probe frame.
func KeepAliveFrame(id uint64) Frame {
	return Frame{Kind: FrameKeepAlive, ProbeID: id}
}

// RecordFrame builds a record notification frame.
func RecordFrame(rec *domain.TransactionRecord, tags ...string) Frame {
	return Frame{Kind: FrameRecord, Record: rec, FilterTags: tags}
}

// ErrorFrame builds a terminal error frame.
func ErrorFrame(err error) Frame {
	return Frame{Kind: FrameError, Err: err}
}

// EndFrame builds a terminal clean-close frame.
func EndFrame() Frame {
	return Frame{Kind: FrameEnd}
}

// Terminal reports whether the frame ends the stream.
func (f Frame) Terminal() bool {
	return f.Kind == FrameError || f.Kind == FrameEnd
}

// HasTag reports whether the frame was delivered for the given filter tag.
func (f Frame) HasTag(tag string) bool {
	for _, t := range f.FilterTags {
		if t == tag {
			return true
		}
	}
	return false
}
