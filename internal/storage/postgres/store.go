package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpAnalytics/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pool_daily_summary (
	pool_address TEXT NOT NULL,
	day DATE NOT NULL,
	fees_eth DOUBLE PRECISION NOT NULL,
	volume_eth DOUBLE PRECISION NOT NULL,
	supply NUMERIC,
	reserve0 DOUBLE PRECISION,
	reserve1 DOUBLE PRECISION,
	token_vs_weth DOUBLE PRECISION,
	tvl_eth DOUBLE PRECISION,
	block_number BIGINT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, day)
);
CREATE TABLE IF NOT EXISTS lp_summary (
	pool_address TEXT NOT NULL,
	exchange TEXT NOT NULL,
	pair TEXT NOT NULL,
	nb_days INTEGER NOT NULL,
	tvl_eth DOUBLE PRECISION,
	cumul_ret DOUBLE PRECISION,
	fees_ret DOUBLE PRECISION,
	fees_ann DOUBLE PRECISION,
	ann_ret DOUBLE PRECISION,
	ann_vol DOUBLE PRECISION,
	max_drawdown DOUBLE PRECISION,
	fees_vol DOUBLE PRECISION,
	fees_30d_pct DOUBLE PRECISION,
	fees_vol_30d DOUBLE PRECISION,
	il_adj_ret DOUBLE PRECISION,
	incentives_apr DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, exchange)
);`

const upsertDailySummarySQL = `
	INSERT INTO pool_daily_summary (
		pool_address, day, fees_eth, volume_eth, supply, reserve0, reserve1, token_vs_weth, tvl_eth, block_number, updated_at
	) VALUES ($1, $2::date, $3, $4, $5::numeric, $6, $7, $8, $9, $10, now())
	ON CONFLICT (pool_address, day)
	DO UPDATE SET
		fees_eth = EXCLUDED.fees_eth,
		volume_eth = EXCLUDED.volume_eth,
		supply = EXCLUDED.supply,
		reserve0 = EXCLUDED.reserve0,
		reserve1 = EXCLUDED.reserve1,
		token_vs_weth = EXCLUDED.token_vs_weth,
		tvl_eth = EXCLUDED.tvl_eth,
		block_number = EXCLUDED.block_number,
		updated_at = now()
`

const upsertLPSummarySQL = `
	INSERT INTO lp_summary (
		pool_address, exchange, pair, nb_days, tvl_eth, cumul_ret, fees_ret, fees_ann, ann_ret, ann_vol,
		max_drawdown, fees_vol, fees_30d_pct, fees_vol_30d, il_adj_ret, incentives_apr, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
	ON CONFLICT (pool_address, exchange)
	DO UPDATE SET
		pair = EXCLUDED.pair,
		nb_days = EXCLUDED.nb_days,
		tvl_eth = EXCLUDED.tvl_eth,
		cumul_ret = EXCLUDED.cumul_ret,
		fees_ret = EXCLUDED.fees_ret,
		fees_ann = EXCLUDED.fees_ann,
		ann_ret = EXCLUDED.ann_ret,
		ann_vol = EXCLUDED.ann_vol,
		max_drawdown = EXCLUDED.max_drawdown,
		fees_vol = EXCLUDED.fees_vol,
		fees_30d_pct = EXCLUDED.fees_30d_pct,
		fees_vol_30d = EXCLUDED.fees_vol_30d,
		il_adj_ret = EXCLUDED.il_adj_ret,
		incentives_apr = EXCLUDED.incentives_apr,
		updated_at = now()
`

// Store mirrors pipeline results into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the result tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertDailySummaries inserts or updates archive summary rows.
func (s *Store) UpsertDailySummaries(ctx context.Context, rows []model.DailySummary) error {
	if len(rows) == 0 {
		return nil
	}
	return s.sendBatch(ctx, dailySummaryBatch(rows), len(rows))
}

// UpsertLPSummaries inserts or updates statistics rows. Non-finite values are stored as NULL.
func (s *Store) UpsertLPSummaries(ctx context.Context, rows []model.LPSummary) error {
	if len(rows) == 0 {
		return nil
	}
	return s.sendBatch(ctx, lpSummaryBatch(rows), len(rows))
}

func dailySummaryBatch(rows []model.DailySummary) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertDailySummarySQL, dailySummaryArgs(row)...)
	}
	return batch
}

func lpSummaryBatch(rows []model.LPSummary) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertLPSummarySQL, lpSummaryArgs(r)...)
	}
	return batch
}

func dailySummaryArgs(row model.DailySummary) []any {
	var block *int64
	if row.BlockNumber != nil {
		b := int64(*row.BlockNumber)
		block = &b
	}
	return []any{
		row.Pool,
		row.Date,
		row.FeesETH,
		row.VolumeETH,
		row.Supply,
		row.Reserve0,
		row.Reserve1,
		row.TokenVsWETH,
		row.TVLETH,
		block,
	}
}

func lpSummaryArgs(r model.LPSummary) []any {
	return []any{
		r.Pool,
		r.Exchange,
		r.Pair,
		r.NbDays,
		finite(r.TVLETH),
		finite(r.CumulRet),
		finite(r.FeesRet),
		finite(r.FeesAnn),
		finite(r.AnnRet),
		finite(r.AnnVol),
		finite(r.MaxDrawdown),
		finite(r.FeesVol),
		finite(r.Fees30DPct),
		finite(r.FeesVol30D),
		finite(r.ILAdjRet),
		finite(r.IncentivesAPR),
	}
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
