package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solana-pool-monitor/internal/stats"
)

// Reporter logs stats snapshots periodically and once at shutdown.
type Reporter struct {
	stats    *stats.Aggregator
	interval time.Duration
	logger   *zap.Logger
}

// NewReporter creates a reporter. A non-positive interval disables periodic reports.
func NewReporter(agg *stats.Aggregator, interval time.Duration, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		stats:    agg,
		interval: interval,
		logger:   logger.Named("stats"),
	}
}

// Run logs a snapshot every interval until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.log("stats", r.stats.Snapshot())
		}
	}
}

// Final logs the closing report and returns the snapshot it reported.
func (r *Reporter) Final() stats.Snapshot {
	snap := r.stats.Snapshot()
	r.log("total swaps detected", snap)
	return snap
}

func (r *Reporter) log(msg string, snap stats.Snapshot) {
	bySource := make(map[string]uint64, len(snap.BySource))
	for _, sc := range snap.Sources() {
		bySource[sc.Source.String()] = sc.Count
	}
	r.logger.Info(msg,
		zap.Uint64("total", snap.TotalMatches),
		zap.Time("start_time", snap.StartTime),
		zap.Duration("elapsed", snap.Elapsed),
		zap.Any("by_source", bySource),
	)
}
