package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/solana"
)

// journal records operations from the stream and the sink in call order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// fakeStream replays scripted frames, then blocks until ctx is done.
type fakeStream struct {
	journal      *journal
	frames       []solana.Frame
	subscribeErr error
	ackErr       error

	mu       sync.Mutex
	requests []solana.SubscribeRequest
	acks     []uint64
	closed   bool
}

func (s *fakeStream) Subscribe(_ context.Context, req solana.SubscribeRequest) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.journal != nil {
		s.journal.add("subscribe")
	}
	return s.subscribeErr
}

func (s *fakeStream) AckProbe(_ context.Context, id uint64) error {
	s.mu.Lock()
	s.acks = append(s.acks, id)
	s.mu.Unlock()
	if s.journal != nil {
		s.journal.add("ack:%d", id)
	}
	return s.ackErr
}

func (s *fakeStream) Recv(ctx context.Context) (solana.Frame, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		if s.journal != nil {
			s.journal.add("recv:%s", f.Kind)
		}
		return f, nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return solana.Frame{}, ctx.Err()
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Requests() []solana.SubscribeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]solana.SubscribeRequest(nil), s.requests...)
}

func (s *fakeStream) Acks() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.acks...)
}

func (s *fakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeTransport hands out scripted streams in order. Once exhausted it
// returns an idle stream that only blocks.
type fakeTransport struct {
	mu      sync.Mutex
	streams []*fakeStream
	openErr []error // consumed before streams; nil entries fall through
	opened  []*fakeStream
}

func (t *fakeTransport) Open(ctx context.Context) (solana.Stream, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.openErr) > 0 {
		err := t.openErr[0]
		t.openErr = t.openErr[1:]
		if err != nil {
			return nil, err
		}
	}

	var s *fakeStream
	if len(t.streams) > 0 {
		s = t.streams[0]
		t.streams = t.streams[1:]
	} else {
		s = &fakeStream{}
	}
	t.opened = append(t.opened, s)
	return s, nil
}

func (t *fakeTransport) Opened() []*fakeStream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*fakeStream(nil), t.opened...)
}

var (
	poolKey    = domain.MustParsePublicKey("8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj")
	jupiterKey = domain.MustParsePublicKey(domain.JupiterV6)
	traderKey  = domain.PublicKey{7, 7, 7}
	otherKey   = domain.PublicKey{9}

	errTest = errors.New("test failure")
)

func testCriterion() domain.SubscriptionCriterion {
	c, err := domain.NewSubscriptionCriterion(poolKey, domain.CommitmentConfirmed, "")
	if err != nil {
		panic(err)
	}
	return c
}

// jupiterRecord has the pool at index 0 and Jupiter invoked at index 3.
func jupiterRecord(sig byte) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		Signature:    domain.Signature{sig},
		Slot:         1000 + uint64(sig),
		AccountKeys:  []domain.PublicKey{poolKey, traderKey, otherKey, jupiterKey},
		Instructions: []domain.SubOperation{{ProgramIDIndex: 3}},
	}
}
