package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpAnalytics/internal/config"
	"lpAnalytics/internal/storage"
	"lpAnalytics/internal/subgraph"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Write the research universe of pools above a TVL threshold",
		RunE:  runDiscover,
	}

	flags := cmd.Flags()
	addSubgraphFlags(flags)
	flags.String("exchange", "UNI", "exchange to search (UNI, SUSHI)")
	flags.Float64("min-reserve-usd", 5000000, "minimum pool reserve in USD")
	flags.StringSlice("tokens", nil, "keep pools with one of these token symbols (comma-separated)")
	flags.String("date", "", "snapshot day, empty means today")
	flags.String("out", "./data/universe.csv", "output universe CSV")
	flags.Int("max-retries", 3, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDiscover(configFile(cmd), cmd.Flags(), time.Now())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	url, err := cfg.Subgraph.URL(cfg.Exchange)
	if err != nil {
		return err
	}
	client, err := subgraph.NewClient(subgraph.Config{
		URL:          url,
		UserAgent:    cfg.Subgraph.UserAgent,
		Timeout:      cfg.Subgraph.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	day := subgraph.DayTimestamp(cfg.Date)
	pools, err := client.SearchPools(ctx, subgraph.SearchParams{
		MinReserveUSD: cfg.MinReserveUSD,
		Date:          day,
		Include:       cfg.Tokens,
		Exchange:      cfg.Exchange,
	})
	if err != nil {
		return fmt.Errorf("search pools: %w", err)
	}

	if err := storage.WriteUniverse(cfg.Out, pools); err != nil {
		return err
	}
	logger.Info("universe written",
		zap.String("exchange", cfg.Exchange),
		zap.Int64("date", day),
		zap.Int("pools", len(pools)),
		zap.String("out", cfg.Out),
	)
	return nil
}
