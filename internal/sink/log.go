package sink

import (
	"context"

	"go.uber.org/zap"

	"solana-pool-monitor/internal/domain"
)

// LogSink writes each swap event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs events at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("swaps")}
}

// Emit logs e.
func (s *LogSink) Emit(_ context.Context, e *domain.SwapEvent) error {
	s.logger.Info("swap detected",
		zap.String("pool_name", e.PoolName),
		zap.String("source", e.Source.String()),
		zap.String("trader", e.Trader),
		zap.String("signature", e.Signature),
		zap.Uint64("slot", e.Slot),
		zap.Time("detected_at", e.DetectedAt),
		zap.String("tx_url", e.ExplorerURL()),
		zap.String("pool_url", e.PoolURL()),
	)
	return nil
}
