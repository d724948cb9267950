package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"solana-pool-monitor/internal/domain"
	"solana-pool-monitor/internal/observability"
)

// DefaultRestartDelay is the fixed wait between a session ending and the next one starting.
const DefaultRestartDelay = 5 * time.Second

// SupervisorState is the lifecycle state of a Supervisor.
type SupervisorState int32

const (
	SupervisorIdle SupervisorState = iota
	SupervisorRunning
	SupervisorBackoff
	SupervisorStopped
)

// String returns the string representation of SupervisorState.
func (s SupervisorState) String() string {
	switch s {
	case SupervisorIdle:
		return "idle"
	case SupervisorRunning:
		return "running"
	case SupervisorBackoff:
		return "backoff"
	case SupervisorStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SessionEnd describes one finished session.
type SessionEnd struct {
	SessionID string
	Attempt   uint64 // 1-based session number
	Cause     string
	Err       error
}

// SupervisorOptions contains configuration for creating a Supervisor.
// Session holds the per-session dependencies; each restart reuses it with the
// same criterion.
type SupervisorOptions struct {
	Session      SessionOptions
	RestartDelay time.Duration // Default: 5s

	// OnSessionEnd is called synchronously after each session terminates.
	OnSessionEnd func(SessionEnd)

	// Sleep waits for d or until ctx is done. Default: timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Supervisor keeps exactly one session alive for the process lifetime.
// Every termination, whatever the cause, is followed by the same fixed delay.
type Supervisor struct {
	opts   SupervisorOptions
	logger *zap.Logger

	state    atomic.Int32
	restarts atomic.Uint64

	mu      sync.Mutex
	current *Session
}

// NewSupervisor validates the options and creates an idle supervisor.
func NewSupervisor(opts SupervisorOptions) (*Supervisor, error) {
	if err := opts.Session.validate(); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}
	if opts.RestartDelay < 0 {
		return nil, errors.New("restart delay must not be negative")
	}
	if opts.RestartDelay == 0 {
		opts.RestartDelay = DefaultRestartDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	opts.Session.setDefaults()

	return &Supervisor{
		opts:   opts,
		logger: opts.Session.Logger.Named("supervisor"),
	}, nil
}

// State returns the supervisor state.
func (s *Supervisor) State() SupervisorState {
	return SupervisorState(s.state.Load())
}

// Restarts returns how many sessions were started after the first one.
func (s *Supervisor) Restarts() uint64 {
	return s.restarts.Load()
}

// Current returns the active session, or nil between sessions.
func (s *Supervisor) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Run starts sessions until ctx is done. Session failures never escape;
// Run returns nil on cancellation and an error only if a session cannot be built.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(SupervisorIdle), int32(SupervisorRunning)) {
		return errors.New("supervisor already started")
	}
	defer s.state.Store(int32(SupervisorStopped))

	s.logger.Info("supervisor started", zap.Duration("restart_delay", s.opts.RestartDelay))

	var attempt uint64
	for {
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopped", zap.Uint64("restarts", s.Restarts()))
			return nil
		}

		attempt++
		if attempt > 1 {
			s.restarts.Add(1)
			observability.RecordRestart()
		}

		session, err := NewSession(s.opts.Session)
		if err != nil {
			return err
		}

		s.state.Store(int32(SupervisorRunning))
		s.setCurrent(session)
		runErr := session.Run(ctx)
		s.setCurrent(nil)

		end := SessionEnd{
			SessionID: session.ID(),
			Attempt:   attempt,
			Cause:     terminationCause(runErr),
			Err:       runErr,
		}
		observability.RecordTermination(end.Cause)
		if s.opts.OnSessionEnd != nil {
			s.opts.OnSessionEnd(end)
		}

		if ctx.Err() != nil {
			s.logger.Info("supervisor stopped", zap.Uint64("restarts", s.Restarts()))
			return nil
		}

		s.logger.Warn("session terminated, restarting",
			zap.String("session_id", end.SessionID),
			zap.String("cause", end.Cause),
			zap.Error(runErr),
			zap.Duration("delay", s.opts.RestartDelay),
		)

		s.state.Store(int32(SupervisorBackoff))
		observability.SetSessionState(int(domain.StateDisconnected))
		if err := s.opts.Sleep(ctx, s.opts.RestartDelay); err != nil {
			s.logger.Info("supervisor stopped", zap.Uint64("restarts", s.Restarts()))
			return nil
		}
	}
}

func (s *Supervisor) setCurrent(session *Session) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
