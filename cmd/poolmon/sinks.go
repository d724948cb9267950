package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-pool-monitor/internal/config"
	"solana-pool-monitor/internal/sink"
	chstore "solana-pool-monitor/internal/storage/clickhouse"
	"solana-pool-monitor/internal/storage/memory"
	"solana-pool-monitor/internal/storage/migrations"
	pgstore "solana-pool-monitor/internal/storage/postgres"
)

// closer releases a sink and its backend.
type closer func(ctx context.Context)

// buildSinks constructs every configured sink. Backends that do network I/O
// are wrapped in sink.Async so they never stall the session. The returned
// function flushes and closes them in reverse order.
func buildSinks(ctx context.Context, cfg config.Config, logger *zap.Logger) (sink.Sink, closer, error) {
	var (
		sinks   sink.Multi
		closers []closer
	)

	closeAll := func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}

	addAsync := func(name string, s sink.Sink, release func()) {
		a := sink.NewAsync(name, s, cfg.SinkBuffer, logger)
		sinks = append(sinks, a)
		closers = append(closers, func(ctx context.Context) {
			if err := a.Close(ctx); err != nil {
				logger.Warn("sink flush incomplete", zap.String("sink", name), zap.Error(err))
			}
			if release != nil {
				release()
			}
		})
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, sink.NewLogSink(logger))

		case config.SinkMemory:
			store := memory.NewSwapEventStore()
			addAsync(name, sink.NewStoreSink(store), func() {
				counts, _ := store.CountBySource(context.Background(), cfg.Pool)
				logger.Info("memory store contents", zap.Int("events", store.Len()), zap.Any("by_source", counts))
			})

		case config.SinkPostgres:
			pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				closeAll(ctx)
				return nil, nil, err
			}
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				closeAll(ctx)
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
			addAsync(name, sink.NewStoreSink(pgstore.NewSwapEventStore(pool)), pool.Close)

		case config.SinkClickhouse:
			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
			if err != nil {
				closeAll(ctx)
				return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
			}
			addAsync(name, sink.NewStoreSink(chstore.NewSwapEventStore(conn)), func() { conn.Close() })

		case config.SinkRedis:
			client, err := sink.DialRedis(ctx, cfg.RedisURL)
			if err != nil {
				closeAll(ctx)
				return nil, nil, err
			}
			addAsync(name, sink.NewRedisSink(client, cfg.RedisChannel), func() { client.Close() })

		case config.SinkNATS:
			conn, err := sink.DialNATS(cfg.NATSURL)
			if err != nil {
				closeAll(ctx)
				return nil, nil, err
			}
			addAsync(name, sink.NewNATSSink(conn, cfg.NATSSubject), func() {
				if err := conn.Drain(); err != nil {
					conn.Close()
				}
			})

		default:
			closeAll(ctx)
			return nil, nil, fmt.Errorf("unknown sink %q", name)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], closeAll, nil
	}
	return sinks, closeAll, nil
}
