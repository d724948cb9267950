package domain

import "time"

// UnknownTrader is used when a transaction has no account keys.
const UnknownTrader = "Unknown"

// SwapEvent is a detected swap on the watched pool.
// Created once per qualifying transaction and never mutated.
type SwapEvent struct {
	Source     Source    // program that initiated the swap
	Trader     string    // fee payer (first account key)
	Signature  string    // transaction signature
	Slot       uint64    // Solana slot number
	DetectedAt time.Time // local detection time
	Pool       string    // watched pool address
	PoolName   string    // human label of the pool, may be empty
}

// ExplorerURL returns the Solscan link for the transaction.
func (e *SwapEvent) ExplorerURL() string {
	return "https://solscan.io/tx/" + e.Signature
}

// PoolURL returns the Solscan link for the pool account.
func (e *SwapEvent) PoolURL() string {
	return "https://solscan.io/account/" + e.Pool
}

// NewSwapEvent derives a SwapEvent from a matching record.
func NewSwapEvent(r *TransactionRecord, source Source, pool PublicKey, poolName string, now time.Time) *SwapEvent {
	trader := UnknownTrader
	if len(r.AccountKeys) > 0 {
		trader = r.AccountKeys[0].String()
	}
	return &SwapEvent{
		Source:     source,
		Trader:     trader,
		Signature:  r.Signature.String(),
		Slot:       r.Slot,
		DetectedAt: now,
		Pool:       pool.String(),
		PoolName:   poolName,
	}
}
