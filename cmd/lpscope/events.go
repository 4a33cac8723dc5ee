package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/config"
	"lpAnalytics/internal/indexer"
	"lpAnalytics/internal/storage"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Export the decoded event logs of a contract",
		RunE:  runEvents,
	}

	flags := cmd.Flags()
	addChainFlags(flags)
	addPaginationFlags(flags)
	flags.String("address", "", "contract address")
	flags.StringSlice("events", nil, "event names (comma-separated), empty means every ABI event")
	flags.Uint64("from", 0, "start block (inclusive)")
	flags.String("to", "latest", "end block (inclusive) or latest")
	flags.String("out", "./data/events.jsonl", "output JSONL file, or directory for csv")
	flags.String("format", "jsonl", "output format (jsonl, csv)")
	addExplorerFlags(flags)

	return cmd
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadEvents(configFile(cmd), cmd.Flags())
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
	if cfg.Address == "" {
		return fmt.Errorf("contract address is required")
	}
	end, err := indexer.ParseEndBlock(cfg.ToBlock)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	stopMetrics, err := startMetrics(cfg.MetricsAddr, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	resolver, err := newContractResolver(cfg.Explorer, "", logger)
	if err != nil {
		return err
	}
	ref, err := resolver.ResolveContract(ctx, cfg.Address)
	if err != nil {
		return err
	}

	chainClient, err := chain.NewClient(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	paginator, err := newPaginator(chainClient, cfg.Chain, cfg.Pagination, logger)
	if err != nil {
		return err
	}

	var sink storage.Storage
	switch cfg.Format {
	case "csv":
		sink = storage.NewCsvStorage(cfg.Out)
	default:
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		StartBlock: cfg.FromBlock,
		EndBlock:   end,
		Events:     cfg.Events,
	}, paginator, sink, logger)

	logger.Info("events export start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.String("contract", ref.Checksum()),
		zap.Strings("events", cfg.Events),
		zap.Uint64("from", cfg.FromBlock),
		zap.String("to", cfg.ToBlock),
		zap.String("out", cfg.Out),
		zap.String("format", cfg.Format),
	)

	return runner.Run(ctx, ref)
}
