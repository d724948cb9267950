// Package monitor runs the subscription lifecycle: a Session owns one stream
// from open to termination and a Supervisor restarts sessions forever.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/detection"
	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/observability"
	"solana-pool-monitor/internal/sink"
	"solana-pool-monitor/internal/solana"
	"solana-pool-monitor/internal/stats"
)

// Reasons a record produced no event.
const (
	skipUntagged = "untagged"
	skipFailed   = "failed"
	skipNoMatch  = "no_match"
)

// SessionOptions contains the dependencies of a Session.
type SessionOptions struct {
	Transport  solana.Transport
	Criterion  domain.SubscriptionCriterion
	PoolName   string
	Classifier *detection.Classifier // Default: classifier over DefaultRegistry
	Stats      *stats.Aggregator
	Sink       sink.Sink        // Default: sink.Discard
	Logger     *zap.Logger      // Default: no-op
	Now        func() time.Time // Default: time.Now
}

func (o *SessionOptions) validate() error {
	if o.Transport == nil {
		return errors.New("transport is required")
	}
	if o.Stats == nil {
		return errors.New("stats aggregator is required")
	}
	if o.Criterion.Account.IsZero() {
		return errors.New("criterion account is required")
	}
	if !o.Criterion.Commitment.IsValid() {
		return fmt.Errorf("invalid commitment %q", o.Criterion.Commitment)
	}
	if o.Criterion.Tag == "" {
		return errors.New("criterion tag is required")
	}
	return nil
}

func (o *SessionOptions) setDefaults() {
	if o.Classifier == nil {
		o.Classifier = detection.NewClassifier(detection.DefaultRegistry())
	}
	if o.Sink == nil {
		o.Sink = sink.Discard
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Session is one subscription attempt. It is single-use: Run returns when
// the stream terminates and a new Session must be created to resubscribe.
type Session struct {
	id     string
	opts   SessionOptions
	logger *zap.Logger
	state  atomic.Int32

	highestSlot uint64 // touched only by the Run goroutine
}

// NewSession creates a session in the Disconnected state.
func NewSession(opts SessionOptions) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}
	opts.setDefaults()

	id := uuid.NewString()
	s := &Session{
		id:     id,
		opts:   opts,
		logger: opts.Logger.Named("session").With(zap.String("session_id", id)),
	}
	s.state.Store(int32(domain.StateDisconnected))
	return s, nil
}

// ID returns the session correlation id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state. Safe to call from any goroutine.
func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

func (s *Session) setState(state domain.SessionState) {
	s.state.Store(int32(state))
	observability.SetSessionState(int(state))
}

// Run opens the stream, subscribes once, and dispatches frames until the
// stream terminates or ctx is done. It never retries.
//
// The returned error is a *ConnectionError, *SubscribeError, *StreamError,
// ErrStreamEnded, or ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	if s.State() != domain.StateDisconnected {
		return errors.New("session already used")
	}
	defer s.setState(domain.StateTerminated)

	s.setState(domain.StateConnecting)
	s.logger.Info("opening stream",
		zap.String("account", s.opts.Criterion.Account.String()),
		zap.String("commitment", s.opts.Criterion.Commitment.String()),
	)

	stream, err := s.opts.Transport.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConnectionError{Err: err}
	}
	defer stream.Close()

	if err := stream.Subscribe(ctx, solana.NewSubscribeRequest(s.opts.Criterion)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SubscribeError{Err: err}
	}

	s.setState(domain.StateSubscribed)
	s.logger.Info("subscribed", zap.String("tag", s.opts.Criterion.Tag))

	for {
		frame, err := stream.Recv(ctx)
		if err != nil {
			return err
		}
		if err := s.dispatch(ctx, stream, frame); err != nil {
			return err
		}
	}
}

// dispatch handles one frame. A non-nil return terminates the session.
func (s *Session) dispatch(ctx context.Context, stream solana.Stream, f solana.Frame) error {
	observability.RecordFrame(f.Kind.String())

	switch f.Kind {
	case solana.FrameKeepAlive:
		if err := stream.AckProbe(ctx, f.ProbeID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &StreamError{Err: fmt.Errorf("ack probe %d: %w", f.ProbeID, err)}
		}
		observability.RecordProbeAcked()
		s.logger.Debug("probe acknowledged", zap.Uint64("probe_id", f.ProbeID))
		return nil

	case solana.FrameRecord:
		if err := s.handleRecord(ctx, f); err != nil {
			observability.RecordFrameError()
			s.logger.Warn("frame processing failed", zap.Error(err))
		}
		return nil

	case solana.FrameError:
		if errors.Is(f.Err, solana.ErrSubscriptionRejected) {
			return &SubscribeError{Err: f.Err}
		}
		return &StreamError{Err: f.Err}

	case solana.FrameEnd:
		return ErrStreamEnded

	default:
		observability.RecordFrameError()
		s.logger.Warn("unknown frame kind", zap.Int("kind", int(f.Kind)))
		return nil
	}
}

// handleRecord runs filter, classifier, stats, and sink for one record.
// Errors are per-frame and never end the session.
func (s *Session) handleRecord(ctx context.Context, f solana.Frame) error {
	if f.DecodeErr != nil {
		return &FrameProcessingError{Err: f.DecodeErr}
	}
	rec := f.Record
	if rec == nil {
		return &FrameProcessingError{Err: errors.New("record frame without payload")}
	}
	if err := rec.Validate(); err != nil {
		return &FrameProcessingError{Signature: rec.Signature.String(), Err: err}
	}

	if rec.Slot > s.highestSlot {
		s.highestSlot = rec.Slot
		observability.UpdateHighestSlot(rec.Slot)
	}

	if !f.HasTag(s.opts.Criterion.Tag) {
		observability.RecordSkipped(skipUntagged)
		return nil
	}
	if rec.Failed() {
		observability.RecordSkipped(skipFailed)
		return nil
	}
	if !detection.Matches(rec, s.opts.Criterion) {
		observability.RecordSkipped(skipNoMatch)
		return nil
	}

	source := s.opts.Classifier.Classify(rec.Instructions, rec.AccountKeys)
	event := domain.NewSwapEvent(rec, source, s.opts.Criterion.Account, s.opts.PoolName, s.opts.Now())

	total := s.opts.Stats.RecordMatch(source)
	observability.RecordSwap(source.String())

	s.logger.Debug("swap matched",
		zap.String("signature", event.Signature),
		zap.Uint64("slot", event.Slot),
		zap.String("source", source.String()),
		zap.Uint64("total", total),
	)

	if err := s.opts.Sink.Emit(ctx, event); err != nil {
		observability.RecordSinkError("session")
		s.logger.Error("sink emit failed",
			zap.String("signature", event.Signature),
			zap.Error(err),
		)
	}
	return nil
}
