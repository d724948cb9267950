package sink

import (
	"time"

	"solana-pool-monitor/internal/domain"
)

// Message is the wire form of a swap event published to brokers.
type Message struct {
	Source     string    `json:"source" msgpack:"source"`
	Trader     string    `json:"trader" msgpack:"trader"`
	Signature  string    `json:"signature" msgpack:"signature"`
	Slot       uint64    `json:"slot" msgpack:"slot"`
	DetectedAt time.Time `json:"detected_at" msgpack:"detected_at"`
	Pool       string    `json:"pool" msgpack:"pool"`
	PoolName   string    `json:"pool_name,omitempty" msgpack:"pool_name,omitempty"`
	URL        string    `json:"url" msgpack:"url"`
}

// NewMessage converts a swap event to its wire form.
func NewMessage(e *domain.SwapEvent) Message {
	return Message{
		Source:     e.Source.String(),
		Trader:     e.Trader,
		Signature:  e.Signature,
		Slot:       e.Slot,
		DetectedAt: e.DetectedAt.UTC(),
		Pool:       e.Pool,
		PoolName:   e.PoolName,
		URL:        e.ExplorerURL(),
	}
}
