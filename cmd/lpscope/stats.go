package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"lpAnalytics/internal/config"
	"lpAnalytics/internal/incentives"
	"lpAnalytics/internal/model"
	"lpAnalytics/internal/stats"
	"lpAnalytics/internal/storage"
	"lpAnalytics/internal/storage/postgres"
	"lpAnalytics/internal/subgraph"
)

func addSubgraphFlags(flags *pflag.FlagSet) {
	flags.String("uni-url", subgraph.DefaultUniswapV2URL, "Uniswap-V2 subgraph URL")
	flags.String("sushi-url", subgraph.DefaultSushiswapURL, "Sushiswap subgraph URL")
	flags.String("user-agent", "", "User-Agent header of subgraph requests")
	flags.Duration("timeout", 30*time.Second, "subgraph request timeout")
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute LP statistics of the universe pools from subgraph history",
		RunE:  runStats,
	}

	flags := cmd.Flags()
	addSubgraphFlags(flags)
	flags.String("universe", "./data/universe.csv", "research universe CSV")
	flags.String("start-ts", "1640991600", "deposit day (unix seconds, YYYY-MM-DD or RFC3339)")
	flags.String("out-dir", "./data/stats", "directory of the history CSVs and final_lp_stats.csv")
	flags.Float64("stake", 0.01, "share of the pool supply owned at deposit")
	flags.Float64("uni-fee", 0.003, "Uniswap trading fee rate")
	flags.Float64("sushi-fee", 0.003, "Sushiswap trading fee rate")
	flags.Float64("days-per-year", 365, "annualization basis")
	flags.String("weth-symbol", "WETH", "symbol of the ETH leg")
	flags.String("pg-dsn", "", "mirror summaries into this Postgres database")
	flags.String("incentives-url", incentives.DefaultSushiURL, "Sushiswap farm API prefix, empty disables the incentive APR")
	flags.Int("max-retries", 3, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadStats(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pools, err := storage.LoadUniverse(cfg.Universe)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	clients := make(map[string]*subgraph.Client)
	clientFor := func(exchange string) (*subgraph.Client, error) {
		exchange = strings.ToUpper(exchange)
		if client, ok := clients[exchange]; ok {
			return client, nil
		}
		url, err := cfg.Subgraph.URL(exchange)
		if err != nil {
			return nil, err
		}
		client, err := subgraph.NewClient(subgraph.Config{
			URL:          url,
			UserAgent:    cfg.Subgraph.UserAgent,
			Timeout:      cfg.Subgraph.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, nil, logger)
		if err != nil {
			return nil, err
		}
		clients[exchange] = client
		return client, nil
	}

	rewards := incentives.NewClient(cfg.IncentivesURL, cfg.Subgraph.Timeout, nil, logger)

	since := subgraph.DayTimestamp(cfg.Start)
	summaries := make([]model.LPSummary, 0, len(pools))
	for _, pool := range pools {
		client, err := clientFor(pool.Exchange)
		if err != nil {
			return err
		}

		params := stats.Params{
			Stake:       cfg.Stake,
			Fee:         cfg.UniFee,
			DaysPerYear: cfg.DaysPerYear,
			WETHSymbol:  cfg.WETHSymbol,
		}
		if strings.EqualFold(pool.Exchange, "SUSHI") {
			params.Fee = cfg.SushiFee
		}

		raw, err := client.PoolHistory(ctx, pool.Exchange, subgraph.PairAddress(pool.Address), since)
		if err != nil {
			return fmt.Errorf("history of %s: %w", pool.Address, err)
		}

		hist, summary, err := stats.Compute(pool, stats.Derive(raw, params), params)
		if errors.Is(err, stats.ErrEmptyHistory) {
			logger.Warn("pool skipped, no usable history", zap.String("pool", pool.Address), zap.String("pair", pool.Pair()))
			continue
		}
		if err != nil {
			return fmt.Errorf("stats of %s: %w", pool.Address, err)
		}

		summary.IncentivesAPR = rewards.APR(ctx, pool.Exchange, subgraph.PairAddress(pool.Address))

		path := filepath.Join(cfg.OutDir, fmt.Sprintf("%s_%s_%s.csv", summary.Pair, strings.ToUpper(pool.Exchange), strings.ToLower(subgraph.PairAddress(pool.Address))))
		if err := storage.WriteLPHistory(path, hist); err != nil {
			return err
		}
		summaries = append(summaries, summary)
		logger.Info("pool stats computed",
			zap.String("pool", pool.Address),
			zap.String("pair", summary.Pair),
			zap.Int("days", summary.NbDays),
			zap.Float64("cumul_ret", summary.CumulRet),
			zap.Float64("il_adj_ret", summary.ILAdjRet),
			zap.Float64("incentives_apr", summary.IncentivesAPR),
		)
	}

	final := filepath.Join(cfg.OutDir, "final_lp_stats.csv")
	if err := storage.WriteLPSummaries(final, summaries); err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.UpsertLPSummaries(ctx, summaries); err != nil {
			return fmt.Errorf("mirror summaries: %w", err)
		}
	}

	logger.Info("stats written", zap.Int("pools", len(summaries)), zap.String("out", final))
	return nil
}
