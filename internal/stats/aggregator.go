// Package stats keeps process-lifetime swap counters.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"solana-pool-monitor/internal/domain"
)

// Snapshot is an immutable copy of the counters.
type Snapshot struct {
	TotalMatches uint64
	StartTime    time.Time
	Elapsed      time.Duration
	BySource     map[domain.Source]uint64
}

// SourceCount is one row of a per-source breakdown.
type SourceCount struct {
	Source domain.Source
	Count  uint64
}

// Sources returns the per-source counts ordered by count desc, then label.
func (s Snapshot) Sources() []SourceCount {
	out := make([]SourceCount, 0, len(s.BySource))
	for src, n := range s.BySource {
		out = append(out, SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Aggregator holds swap counters. Safe for concurrent use.
type Aggregator struct {
	start time.Time
	now   func() time.Time
	total atomic.Uint64

	mu       sync.Mutex
	bySource map[domain.Source]uint64
}

// NewAggregator creates an aggregator whose clock starts now.
func NewAggregator() *Aggregator {
	return NewAggregatorWithClock(time.Now)
}

// NewAggregatorWithClock creates an aggregator with a custom clock.
func NewAggregatorWithClock(now func() time.Time) *Aggregator {
	return &Aggregator{
		start:    now(),
		now:      now,
		bySource: make(map[domain.Source]uint64),
	}
}

// RecordMatch counts one detected swap and returns the new total.
func (a *Aggregator) RecordMatch(source domain.Source) uint64 {
	a.mu.Lock()
	a.bySource[source]++
	a.mu.Unlock()
	return a.total.Add(1)
}

// TotalMatches returns the current total.
func (a *Aggregator) TotalMatches() uint64 {
	return a.total.Load()
}

// Snapshot returns a copy of the counters and the time elapsed since start.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	bySource := make(map[domain.Source]uint64, len(a.bySource))
	var total uint64
	for src, n := range a.bySource {
		bySource[src] = n
		total += n
	}
	a.mu.Unlock()

	return Snapshot{
		TotalMatches: total,
		StartTime:    a.start,
		Elapsed:      a.now().Sub(a.start),
		BySource:     bySource,
	}
}
