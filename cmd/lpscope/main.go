package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lpAnalytics/internal/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "lpscope",
		Short:        "Historical LP economics for constant-product pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newEventsCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newBlockDateCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "archive node RPC URL")
	flags.Int("max-retries", 3, "maximum retry attempts for transient provider errors")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPaginationFlags(flags *pflag.FlagSet) {
	flags.Uint64("initial-window", 100000, "first log window size in blocks")
	flags.Uint64("target-yield", 10000, "records a window should return")
	flags.Float64("safety-factor", 0.9, "damping applied when rescaling the window")
	flags.Uint64("min-window", 1, "smallest window before giving up on overflow")
	flags.Uint64("max-window", 0, "largest window, 0 means unbounded")
	flags.Int("max-overflow-retries", 64, "consecutive overflows tolerated before giving up")
	flags.Duration("pause", 5*time.Second, "minimum interval between provider calls")
	flags.Bool("scan-empty", false, "keep scanning past windows without records")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func configFile(cmd *cobra.Command) string {
	cfgFile, _ := cmd.Flags().GetString("config")
	return cfgFile
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startMetrics serves metrics when addr is set; the returned func stops the server.
func startMetrics(addr string, logger *zap.Logger) (func(), error) {
	server := metrics.NewServer(addr, logger)
	if err := server.Start(); err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			logger.Warn("stop metrics server", zap.Error(err))
		}
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
