package archive

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lpAnalytics/internal/blockdate"
	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/indexer"
	"lpAnalytics/internal/model"
	"lpAnalytics/internal/normalize"
)

const (
	ExchangeUni   = "UNI"
	ExchangeSushi = "SUSHI"
)

// EventSource returns every record of an event over a block range. *indexer.Paginator implements it.
type EventSource interface {
	FetchAll(ctx context.Context, ref contract.Ref, eventName string, start, end uint64) ([]model.EventRecord, error)
}

// SupplyReader reads totalSupply at historical blocks. *state.Reader implements it.
type SupplyReader interface {
	Supply(ctx context.Context, ref contract.Ref, blocks []uint64) ([]model.SupplySnapshot, error)
}

// DateMapper maps blocks to days and back. *blockdate.Map implements it.
type DateMapper interface {
	DateOf(block uint64) (string, error)
	BlockOf(date string) (uint64, bool)
}

// ContractResolver binds a pool address to its ABI. *explorer.Resolver and *explorer.StaticResolver implement it.
type ContractResolver interface {
	ResolveContract(ctx context.Context, address string) (contract.Ref, error)
}

// Config holds the pipeline parameters.
type Config struct {
	StartBlock uint64
	EndBlock   uint64
	UniFee     float64
	SushiFee   float64
	WETHSymbol string
}

func DefaultConfig() Config {
	return Config{
		StartBlock: 9000000,
		EndBlock:   indexer.Latest,
		UniFee:     0.003,
		SushiFee:   0.003,
		WETHSymbol: "WETH",
	}
}

// DayFees is the swap activity of one day, in ETH.
type DayFees struct {
	Date      string
	FeesETH   float64
	VolumeETH float64
}

// DayReserves is the last Sync of one day.
type DayReserves struct {
	Date        string
	Block       uint64
	Reserve0    float64
	Reserve1    float64
	TokenVsWETH float64
	TVLETH      float64
}

// DaySupply is the LP token supply attributed to one day.
type DaySupply struct {
	Date   string
	Block  uint64
	Supply *big.Int
}

// Pipeline derives daily fees, reserves and supply of a V2 pool from an archive node.
type Pipeline struct {
	events EventSource
	supply SupplyReader
	dates  DateMapper
	cfg    Config
	logger *zap.Logger
}

func NewPipeline(events EventSource, supply SupplyReader, dates DateMapper, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if events == nil || supply == nil || dates == nil {
		return nil, fmt.Errorf("event source, supply reader and date mapper are required")
	}
	if cfg.WETHSymbol == "" {
		cfg.WETHSymbol = "WETH"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{events: events, supply: supply, dates: dates, cfg: cfg, logger: logger}, nil
}

func (p *Pipeline) tradingFee(exchange string) float64 {
	if strings.EqualFold(exchange, ExchangeUni) {
		return p.cfg.UniFee
	}
	return p.cfg.SushiFee
}

// wethIsToken0 reports which leg is priced in ETH. Pools without WETH fall back to token1.
func (p *Pipeline) wethIsToken0(pool model.PoolInfo) bool {
	return strings.EqualFold(pool.Token0, p.cfg.WETHSymbol)
}

// Fees sums the WETH leg of every Swap per day and applies the exchange trading fee.
func (p *Pipeline) Fees(ctx context.Context, pool model.PoolInfo, ref contract.Ref) ([]DayFees, error) {
	records, err := p.events.FetchAll(ctx, ref, "Swap", p.cfg.StartBlock, p.cfg.EndBlock)
	if err != nil {
		return nil, fmt.Errorf("fetch swaps: %w", err)
	}
	table := normalize.Normalize(records)

	inCol, outCol, decimals := "amount1In", "amount1Out", pool.Token1Decimals
	if p.wethIsToken0(pool) {
		inCol, outCol, decimals = "amount0In", "amount0Out", pool.Token0Decimals
	}
	fee := p.tradingFee(pool.Exchange)

	byDay := make(map[string]*DayFees)
	for _, row := range table.Rows {
		date, ok, err := p.dateOfRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		amountIn, err := row.BigInt(inCol)
		if err != nil {
			return nil, err
		}
		amountOut, err := row.BigInt(outCol)
		if err != nil {
			return nil, err
		}

		volume := tokenAmount(amountIn, decimals) + tokenAmount(amountOut, decimals)
		day, ok := byDay[date]
		if !ok {
			day = &DayFees{Date: date}
			byDay[date] = day
		}
		day.VolumeETH += volume
		day.FeesETH += volume * fee
	}

	out := make([]DayFees, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Reserves keeps the last Sync of each day and the block list used for supply snapshots:
// the first block of every day seen.
func (p *Pipeline) Reserves(ctx context.Context, pool model.PoolInfo, ref contract.Ref) ([]DayReserves, []uint64, error) {
	records, err := p.events.FetchAll(ctx, ref, "Sync", p.cfg.StartBlock, p.cfg.EndBlock)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch syncs: %w", err)
	}
	table := normalize.Normalize(records)
	wethIs0 := p.wethIsToken0(pool)

	var out []DayReserves
	for _, row := range table.Rows {
		date, ok, err := p.dateOfRow(row)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		block, err := row.Uint64(normalize.ColBlockNumber)
		if err != nil {
			return nil, nil, err
		}
		raw0, err := row.BigInt("reserve0")
		if err != nil {
			return nil, nil, err
		}
		raw1, err := row.BigInt("reserve1")
		if err != nil {
			return nil, nil, err
		}

		day := DayReserves{
			Date:     date,
			Block:    block,
			Reserve0: tokenAmount(raw0, pool.Token0Decimals),
			Reserve1: tokenAmount(raw1, pool.Token1Decimals),
		}
		weth, other := day.Reserve1, day.Reserve0
		if wethIs0 {
			weth, other = day.Reserve0, day.Reserve1
		}
		if weth != 0 {
			day.TokenVsWETH = other / weth
		}
		day.TVLETH = 2 * weth

		// rows arrive in chain order, so the last Sync of a day replaces the earlier ones
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1] = day
		} else {
			out = append(out, day)
		}
	}

	blocks := make([]uint64, 0, len(out))
	for _, day := range out {
		block, ok := p.dates.BlockOf(day.Date)
		if !ok {
			continue
		}
		if n := len(blocks); n == 0 || blocks[n-1] != block {
			blocks = append(blocks, block)
		}
	}
	return out, blocks, nil
}

// Supply reads totalSupply at each block and keeps the last value per mapped date.
//
// A day's first block maps to the previous date because the date lookup is strictly-less.
func (p *Pipeline) Supply(ctx context.Context, ref contract.Ref, blocks []uint64) ([]DaySupply, error) {
	snapshots, err := p.supply.Supply(ctx, ref, blocks)
	if err != nil {
		return nil, fmt.Errorf("read supply: %w", err)
	}

	var out []DaySupply
	for _, snap := range snapshots {
		date, err := p.dates.DateOf(snap.BlockNumber)
		if errors.Is(err, blockdate.ErrNoMapping) {
			continue
		}
		if err != nil {
			return nil, err
		}
		day := DaySupply{Date: date, Block: snap.BlockNumber, Supply: snap.Value}
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1] = day
		} else {
			out = append(out, day)
		}
	}
	return out, nil
}

// RunPool resolves the ABI of pool once, then runs the pipeline against it.
// The resolved interface must declare both Swap and Sync.
func (p *Pipeline) RunPool(ctx context.Context, pool model.PoolInfo, resolver ContractResolver) ([]model.DailySummary, error) {
	if resolver == nil {
		return nil, fmt.Errorf("contract resolver is nil")
	}
	ref, err := resolver.ResolveContract(ctx, pool.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve abi of %s: %w", pool.Address, err)
	}
	for _, name := range []string{"Swap", "Sync"} {
		if _, err := ref.Event(name); err != nil {
			return nil, err
		}
	}
	return p.Run(ctx, pool, ref)
}

// Run executes fees, reserves and supply, then joins them onto the fee days.
func (p *Pipeline) Run(ctx context.Context, pool model.PoolInfo, ref contract.Ref) ([]model.DailySummary, error) {
	p.logger.Info("archive pipeline start",
		zap.String("pool", pool.Address),
		zap.String("pair", pool.Pair()),
		zap.String("exchange", pool.Exchange),
		zap.Uint64("from", p.cfg.StartBlock),
	)

	fees, err := p.Fees(ctx, pool, ref)
	if err != nil {
		return nil, err
	}
	p.logger.Info("fees computed", zap.Int("days", len(fees)))

	reserves, blocks, err := p.Reserves(ctx, pool, ref)
	if err != nil {
		return nil, err
	}
	p.logger.Info("reserves computed", zap.Int("days", len(reserves)), zap.Int("blocks", len(blocks)))

	supply, err := p.Supply(ctx, ref, blocks)
	if err != nil {
		return nil, err
	}
	p.logger.Info("supply computed", zap.Int("days", len(supply)))

	return Join(pool.Address, fees, supply, reserves), nil
}

// Join left-joins supply and reserves onto the fee days.
func Join(pool string, fees []DayFees, supply []DaySupply, reserves []DayReserves) []model.DailySummary {
	supplyByDate := make(map[string]DaySupply, len(supply))
	for _, s := range supply {
		supplyByDate[s.Date] = s
	}
	reservesByDate := make(map[string]DayReserves, len(reserves))
	for _, r := range reserves {
		reservesByDate[r.Date] = r
	}

	out := make([]model.DailySummary, 0, len(fees))
	for _, f := range fees {
		row := model.DailySummary{
			Pool:      pool,
			Date:      f.Date,
			FeesETH:   f.FeesETH,
			VolumeETH: f.VolumeETH,
		}
		if s, ok := supplyByDate[f.Date]; ok && s.Supply != nil {
			text := s.Supply.String()
			row.Supply = &text
		}
		if r, ok := reservesByDate[f.Date]; ok {
			r := r
			row.Reserve0 = &r.Reserve0
			row.Reserve1 = &r.Reserve1
			row.TokenVsWETH = &r.TokenVsWETH
			row.TVLETH = &r.TVLETH
			row.BlockNumber = &r.Block
		}
		out = append(out, row)
	}
	return out
}

func (p *Pipeline) dateOfRow(row normalize.Row) (string, bool, error) {
	block, err := row.Uint64(normalize.ColBlockNumber)
	if err != nil {
		return "", false, err
	}
	date, err := p.dates.DateOf(block)
	if errors.Is(err, blockdate.ErrNoMapping) {
		p.logger.Debug("block predates date table, skipping", zap.Uint64("block", block))
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return date, true, nil
}
