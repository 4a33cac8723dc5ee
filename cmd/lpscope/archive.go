package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpAnalytics/internal/archive"
	"lpAnalytics/internal/blockdate"
	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/config"
	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/indexer"
	"lpAnalytics/internal/model"
	"lpAnalytics/internal/state"
	"lpAnalytics/internal/storage"
	"lpAnalytics/internal/storage/postgres"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Build daily fee, reserve and supply summaries of pools from an archive node",
		RunE:  runArchive,
	}

	flags := cmd.Flags()
	addChainFlags(flags)
	addPaginationFlags(flags)
	addExplorerFlags(flags)
	flags.Bool("builtin-abi", false, "bind pools to the bundled V2 pair ABI instead of asking the explorer")
	flags.StringSlice("pool", nil, "pool addresses (comma-separated)")
	flags.String("universe", "", "research universe CSV with token symbols and decimals")
	flags.String("block-dates", "./data/block_dates.tsv", "block-to-date TSV table")
	flags.String("out-dir", "./data", "directory of the <pool>_summary.csv files")
	flags.Uint64("from", 9000000, "start block (inclusive)")
	flags.String("to", "latest", "end block (inclusive) or latest")
	flags.String("exchange", archive.ExchangeUni, "exchange of pools missing from the universe (UNI, SUSHI)")
	flags.Float64("uni-fee", 0.003, "Uniswap trading fee rate")
	flags.Float64("sushi-fee", 0.003, "Sushiswap trading fee rate")
	flags.String("weth-symbol", "WETH", "symbol of the ETH leg")
	flags.String("pg-dsn", "", "mirror summaries into this Postgres database")

	return cmd
}

func runArchive(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadArchive(configFile(cmd), cmd.Flags())
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
	if len(cfg.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}
	end, err := indexer.ParseEndBlock(cfg.ToBlock)
	if err != nil {
		return err
	}

	dates, err := blockdate.Load(cfg.BlockDates)
	if err != nil {
		return err
	}

	var universe []model.PoolInfo
	if cfg.Universe != "" {
		if universe, err = storage.LoadUniverse(cfg.Universe); err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	stopMetrics, err := startMetrics(cfg.MetricsAddr, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	chainClient, err := chain.NewClient(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	paginator, err := newPaginator(chainClient, cfg.Chain, cfg.Pagination, logger)
	if err != nil {
		return err
	}
	resolver, err := newContractResolver(cfg.Explorer, pairABI(cfg.BuiltinABI), logger)
	if err != nil {
		return err
	}

	pipeline, err := archive.NewPipeline(paginator, state.NewReader(chainClient, logger), dates, archive.Config{
		StartBlock: cfg.FromBlock,
		EndBlock:   end,
		UniFee:     cfg.UniFee,
		SushiFee:   cfg.SushiFee,
		WETHSymbol: cfg.WETHSymbol,
	}, logger)
	if err != nil {
		return err
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		if store, err = postgres.NewStore(ctx, cfg.PGDSN); err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	logger.Info("archive start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Strings("pools", cfg.Pools),
		zap.Uint64("from", cfg.FromBlock),
		zap.String("to", cfg.ToBlock),
		zap.Int("block_dates", dates.Len()),
		zap.Int("universe", len(universe)),
		zap.Bool("builtin_abi", cfg.BuiltinABI),
	)

	tokens := contract.NewTokenMetaCache()
	for _, address := range cfg.Pools {
		pool, err := archive.ResolvePool(ctx, address, universe, chainClient, tokens, cfg.Exchange, logger)
		if err != nil {
			return err
		}
		rows, err := pipeline.RunPool(ctx, pool, resolver)
		if err != nil {
			return fmt.Errorf("pool %s: %w", pool.Address, err)
		}

		path := storage.SummaryPath(cfg.OutDir, pool.Address)
		if err := storage.WriteDailySummaries(path, rows); err != nil {
			return err
		}
		if store != nil {
			if err := store.UpsertDailySummaries(ctx, rows); err != nil {
				return fmt.Errorf("mirror summaries: %w", err)
			}
		}
		logger.Info("pool summary written", zap.String("pool", pool.Address), zap.String("path", path), zap.Int("days", len(rows)))
	}

	return nil
}
