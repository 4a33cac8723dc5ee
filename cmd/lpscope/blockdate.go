package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpAnalytics/internal/blockdate"
	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/config"
)

func newBlockDateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockdate",
		Short: "Build the block-to-date table (first block of each UTC day)",
		RunE:  runBlockDate,
	}

	flags := cmd.Flags()
	addChainFlags(flags)
	flags.String("from-date", "2020-01-01", "first day (YYYY-MM-DD, RFC3339 or unix seconds)")
	flags.String("to-date", "", "last day, empty means today")
	flags.String("out", "./data/block_dates.tsv", "output TSV path")

	return cmd
}

func runBlockDate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadBlockDate(configFile(cmd), cmd.Flags(), time.Now())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Chain.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	logger.Info("blockdate start",
		zap.String("from", cfg.From.Format(blockdate.DateLayout)),
		zap.String("to", cfg.To.Format(blockdate.DateLayout)),
		zap.String("out", cfg.Out),
	)

	entries, err := blockdate.NewBuilder(chainClient, cfg.Chain.MaxRetries, cfg.Chain.RetryBackoff, logger).Build(ctx, cfg.From, cfg.To)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(cfg.Out)
	if err != nil {
		return fmt.Errorf("create %s: %w", cfg.Out, err)
	}
	defer file.Close()

	if err := blockdate.Write(file, entries); err != nil {
		return err
	}
	logger.Info("blockdate written", zap.Int("days", len(entries)))
	return file.Close()
}
