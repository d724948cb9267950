package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/config"
	"solana-pool-monitor/internal/detection"
	"solana-pool-monitor/internal/logging"
	"solana-pool-monitor/internal/monitor"
	"solana-pool-monitor/internal/observability"
	"solana-pool-monitor/internal/solana"
	"solana-pool-monitor/internal/stats"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// shutdownTimeout bounds sink flushing after the monitor stops.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poolmon",
		Short:        "Solana pool swap monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stream and classify swaps on a pool",
		RunE:  runMonitor,
	}

	runCmd.Flags().String("ws-endpoint", config.DefaultEndpoint, "provider WebSocket endpoint")
	runCmd.Flags().String("token", "", "provider API key (also read from GETBLOCK_TOKEN)")
	runCmd.Flags().String("pool", config.DefaultPool, "pool account to watch")
	runCmd.Flags().String("pool-name", config.DefaultPoolName, "display name of the pool")
	runCmd.Flags().String("commitment", "confirmed", "commitment level (processed, confirmed, finalized)")
	runCmd.Flags().String("tag", "pool_swaps", "subscription filter tag")
	runCmd.Flags().Duration("restart-delay", 5*time.Second, "wait between session restarts")
	runCmd.Flags().Duration("ping-interval", 30*time.Second, "client ping interval")
	runCmd.Flags().Duration("read-timeout", 60*time.Second, "read deadline per frame")
	runCmd.Flags().Duration("write-timeout", 10*time.Second, "write deadline per frame")
	runCmd.Flags().StringSlice("programs", nil, "classifier registry entries (label=programID, comma-separated)")
	runCmd.Flags().StringSlice("sinks", []string{config.SinkLog}, "event sinks (log, memory, postgres, clickhouse, redis, nats)")
	runCmd.Flags().Int("sink-buffer", 1024, "queue length per asynchronous sink")
	runCmd.Flags().String("postgres-dsn", "", "Postgres DSN for the postgres sink")
	runCmd.Flags().String("clickhouse-dsn", "", "ClickHouse DSN for the clickhouse sink")
	runCmd.Flags().String("redis-url", "", "Redis URL for the redis sink")
	runCmd.Flags().String("redis-channel", config.DefaultRedisChannel, "Redis pub/sub channel")
	runCmd.Flags().String("nats-url", "", "NATS URL for the nats sink")
	runCmd.Flags().String("nats-subject", config.DefaultNATSSubject, "NATS subject")
	runCmd.Flags().String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	runCmd.Flags().String("log-format", "json", "log format (json, console)")
	runCmd.Flags().Duration("stats-interval", time.Minute, "periodic stats log interval (0 disables)")

	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	criterion, err := cfg.Criterion()
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	ctx, stop := shutdownContext(logger)
	defer stop()

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	out, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		logger.Error("sink setup failed", zap.Error(err))
		return err
	}

	transport, err := solana.NewWSTransport(solana.WSConfig{
		Endpoint:     cfg.WSEndpoint,
		Token:        cfg.Token,
		PingInterval: cfg.PingInterval,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
	if err != nil {
		closeSinks(context.Background())
		return err
	}

	agg := stats.NewAggregator()
	reporter := monitor.NewReporter(agg, cfg.StatsInterval, logger)

	supervisor, err := monitor.NewSupervisor(monitor.SupervisorOptions{
		Session: monitor.SessionOptions{
			Transport:  transport,
			Criterion:  criterion,
			PoolName:   cfg.PoolName,
			Classifier: detection.NewClassifier(registry),
			Stats:      agg,
			Sink:       out,
			Logger:     logger,
		},
		RestartDelay: cfg.RestartDelay,
	})
	if err != nil {
		closeSinks(context.Background())
		return err
	}

	logger.Info("monitor start",
		zap.String("version", version),
		zap.String("pool", criterion.Account.String()),
		zap.String("pool_name", cfg.PoolName),
		zap.String("commitment", criterion.Commitment.String()),
		zap.Strings("programs", registry.Entries()),
		zap.Strings("sinks", cfg.Sinks),
		zap.Duration("restart_delay", cfg.RestartDelay),
	)

	go reporter.Run(ctx)

	runErr := supervisor.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeSinks(flushCtx)

	reporter.Final()

	if runErr != nil {
		logger.Error("monitor failed", zap.Error(runErr))
		return runErr
	}

	logger.Info("Shutdown complete", zap.Uint64("restarts", supervisor.Restarts()))
	return nil
}

// shutdownContext cancels on SIGINT or SIGTERM. A second signal, or a stuck
// shutdown, exits immediately.
func shutdownContext(logger *zap.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(shutdownTimeout + 5*time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics server start", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
