package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"solana-pool-monitor/internal/domain"
)

// NATSSink publishes JSON-encoded events to a NATS subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink creates a sink publishing to subject.
func NewNATSSink(conn *nats.Conn, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

// DialNATS connects to a NATS server. The client reconnects on its own.
func DialNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("solana-pool-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

// Emit publishes e.
func (s *NATSSink) Emit(_ context.Context, e *domain.SwapEvent) error {
	data, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("encode swap event: %w", err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	return nil
}
