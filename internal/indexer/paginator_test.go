package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
)

// fakeChain serves records for a set of blocks and rejects windows holding more than limit records.
type fakeChain struct {
	perBlock map[uint64]int
	limit    int
	// failAll rejects every window.
	failAll bool
	err     error
	cancel  context.CancelFunc

	windows []BlockRange
	results []bool
}

func denseChain(from, to uint64, perBlock, limit int) *fakeChain {
	c := &fakeChain{perBlock: make(map[uint64]int), limit: limit}
	for b := from; b <= to; b++ {
		c.perBlock[b] = perBlock
	}
	return c
}

func (c *fakeChain) FetchWindow(_ context.Context, _ contract.Ref, eventName string, rng BlockRange) ([]model.EventRecord, error) {
	c.windows = append(c.windows, rng)
	if c.cancel != nil {
		c.cancel()
	}
	if c.err != nil {
		c.results = append(c.results, false)
		return nil, c.err
	}

	var records []model.EventRecord
	// newest first, highest log index first: callers must not rely on provider order
	for b := rng.To; ; b-- {
		for i := c.perBlock[b] - 1; i >= 0; i-- {
			records = append(records, model.EventRecord{BlockNumber: b, LogIndex: uint(i), EventName: eventName})
		}
		if b == rng.From {
			break
		}
	}
	if c.failAll || (c.limit > 0 && len(records) > c.limit) {
		c.results = append(c.results, false)
		return nil, &WindowError{Range: rng, Class: chain.ClassOverflow, Err: errors.New("query returned more than 10000 results")}
	}
	c.results = append(c.results, true)
	return records, nil
}

func (c *fakeChain) okWindows() []BlockRange {
	var out []BlockRange
	for i, ok := range c.results {
		if ok {
			out = append(out, c.windows[i])
		}
	}
	return out
}

func testConfig() PaginatorConfig {
	cfg := DefaultPaginatorConfig()
	cfg.InitialWindow = 300
	cfg.TargetYield = 50
	return cfg
}

func newTestPaginator(t *testing.T, source WindowSource, head uint64, cfg PaginatorConfig) *Paginator {
	t.Helper()
	p, err := NewPaginator(source, staticHead{number: head}, nil, cfg, nil)
	require.NoError(t, err)
	return p
}

func requireOrdered(t *testing.T, records []model.EventRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if prev.BlockNumber == cur.BlockNumber {
			require.Less(t, prev.LogIndex, cur.LogIndex, "log index order at block %d", cur.BlockNumber)
			continue
		}
		require.Less(t, prev.BlockNumber, cur.BlockNumber, "block order at position %d", i)
	}
}

func TestFetchAllCoversRangeInOrder(t *testing.T) {
	source := denseChain(0, 999, 1, 100)
	source.perBlock[500] = 3

	p := newTestPaginator(t, source, 999, testConfig())
	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 100, Latest)
	require.NoError(t, err)

	require.Len(t, records, 902)
	require.Equal(t, uint64(100), records[0].BlockNumber)
	require.Equal(t, uint64(999), records[len(records)-1].BlockNumber)
	requireOrdered(t, records)

	ok := source.okWindows()
	require.NotEmpty(t, ok)
	require.Equal(t, uint64(999), ok[0].To)
	for i := 1; i < len(ok); i++ {
		require.Equal(t, ok[i-1].From-1, ok[i].To, "gap between %s and %s", ok[i-1], ok[i])
	}
	require.Equal(t, uint64(100), ok[len(ok)-1].From)
}

func TestFetchAllExplicitEndBlock(t *testing.T) {
	source := denseChain(0, 999, 1, 0)

	p := newTestPaginator(t, source, 999, testConfig())
	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 10, 20)
	require.NoError(t, err)
	require.Len(t, records, 11)
	require.Equal(t, BlockRange{From: 10, To: 20}, source.windows[0])
}

func TestFetchAllOverflowShrinksWithoutProgress(t *testing.T) {
	source := denseChain(0, 999, 1, 0)
	source.failAll = true

	cfg := testConfig()
	cfg.InitialWindow = 1024
	p := newTestPaginator(t, source, 5000, cfg)

	_, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 0, Latest)
	require.ErrorIs(t, err, ErrFetchExhausted)
	require.ErrorIs(t, err, ErrWindowTooLarge)

	// 1024, 512, ..., 1
	require.Len(t, source.windows, 11)
	for i, w := range source.windows {
		require.Equal(t, uint64(5000), w.To, "cursor moved on overflow")
		if i > 0 {
			require.Less(t, w.Blocks(), source.windows[i-1].Blocks())
		}
	}
	require.Equal(t, uint64(1), source.windows[10].Blocks())
}

func TestFetchAllMaxOverflowRetries(t *testing.T) {
	source := denseChain(0, 10, 1, 0)
	source.failAll = true

	cfg := testConfig()
	cfg.InitialWindow = 1 << 20
	cfg.MaxOverflowRetries = 3
	p := newTestPaginator(t, source, 1<<21, cfg)

	_, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 0, Latest)
	require.ErrorIs(t, err, ErrFetchExhausted)
	require.Len(t, source.windows, 4)
}

func TestFetchAllRecoversAfterOverflow(t *testing.T) {
	source := denseChain(0, 999, 2, 120)

	cfg := testConfig()
	cfg.InitialWindow = 1000
	p := newTestPaginator(t, source, 999, cfg)

	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Swap", 0, Latest)
	require.NoError(t, err)
	require.Len(t, records, 2000)
	requireOrdered(t, records)
	require.False(t, source.results[0])
	require.Contains(t, source.results, true)
}

func TestFetchAllOverflowClampsToStart(t *testing.T) {
	source := denseChain(0, 100, 10, 40)

	p := newTestPaginator(t, source, 100, testConfig())
	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 95, Latest)
	require.NoError(t, err)
	require.Len(t, records, 60)
	for _, w := range source.windows {
		require.GreaterOrEqual(t, w.From, uint64(95))
	}
}

func TestFetchAllOverflowNarrowsClampedWindow(t *testing.T) {
	// ten blocks left but the window spans a hundred thousand
	source := denseChain(100, 109, 10, 50)

	p := newTestPaginator(t, source, 109, DefaultPaginatorConfig())
	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Swap", 100, Latest)
	require.NoError(t, err)
	require.Len(t, records, 100)
	requireOrdered(t, records)

	require.Equal(t, BlockRange{From: 100, To: 109}, source.windows[0])
	require.Equal(t, BlockRange{From: 105, To: 109}, source.windows[1])
	for i := 1; i < len(source.windows); i++ {
		if !source.results[i-1] && !source.results[i] {
			require.NotEqual(t, source.windows[i-1], source.windows[i], "rejected window retried unchanged")
		}
		if !source.results[i-1] {
			require.Less(t, source.windows[i].Blocks(), source.windows[i-1].Blocks())
		}
	}
}

func TestFetchAllStopsOnEmptyWindow(t *testing.T) {
	source := denseChain(900, 999, 1, 0)
	for b := uint64(0); b < 100; b++ {
		source.perBlock[b] = 1
	}

	cfg := testConfig()
	cfg.InitialWindow = 50
	p := newTestPaginator(t, source, 999, cfg)

	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 0, Latest)
	require.NoError(t, err)
	// the gap between block 100 and 900 ends the scan; the oldest segment is not fetched
	require.Len(t, records, 100)
	require.Equal(t, uint64(900), records[0].BlockNumber)
}

func TestFetchAllScanEmptyContinuesPastGaps(t *testing.T) {
	source := denseChain(900, 999, 1, 0)
	for b := uint64(0); b < 100; b++ {
		source.perBlock[b] = 1
	}

	cfg := testConfig()
	cfg.InitialWindow = 50
	cfg.ScanEmpty = true
	p := newTestPaginator(t, source, 999, cfg)

	records, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 0, Latest)
	require.NoError(t, err)
	require.Len(t, records, 200)
	require.Equal(t, uint64(0), records[0].BlockNumber)
	requireOrdered(t, records)
}

func TestFetchAllPropagatesFatalErrors(t *testing.T) {
	source := denseChain(0, 10, 1, 0)
	source.err = errors.New("decode Sync log: boom")

	p := newTestPaginator(t, source, 10, testConfig())
	_, err := p.FetchAll(context.Background(), contract.Ref{}, "Sync", 0, Latest)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrFetchExhausted)
	require.Len(t, source.windows, 1)
}

func TestFetchAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := denseChain(0, 999, 1, 0)
	source.cancel = cancel

	cfg := testConfig()
	cfg.InitialWindow = 10
	p := newTestPaginator(t, source, 999, cfg)

	_, err := p.FetchAll(ctx, contract.Ref{}, "Sync", 0, Latest)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, source.windows, 1)
}

func TestRescaleTracksTargetYield(t *testing.T) {
	cfg := DefaultPaginatorConfig()
	cfg.MaxWindow = 500000
	p := newTestPaginator(t, denseChain(0, 0, 0, 0), 0, cfg)

	require.Equal(t, uint64(90000), p.rescale(100000, 10000))
	require.Equal(t, uint64(45000), p.rescale(100000, 20000))
	require.Equal(t, uint64(500000), p.rescale(100000, 1))
	require.Equal(t, uint64(1), p.rescale(1, 100000))
}

func TestPaginatorConfigValidation(t *testing.T) {
	source := denseChain(0, 0, 0, 0)
	mutations := []func(*PaginatorConfig){
		func(c *PaginatorConfig) { c.InitialWindow = 0 },
		func(c *PaginatorConfig) { c.TargetYield = 0 },
		func(c *PaginatorConfig) { c.SafetyFactor = 0 },
		func(c *PaginatorConfig) { c.SafetyFactor = 1.5 },
		func(c *PaginatorConfig) { c.MinWindow = 0 },
		func(c *PaginatorConfig) { c.MinWindow = 10; c.MaxWindow = 5 },
		func(c *PaginatorConfig) { c.MaxOverflowRetries = -1 },
	}
	for _, mutate := range mutations {
		cfg := DefaultPaginatorConfig()
		mutate(&cfg)
		_, err := NewPaginator(source, staticHead{}, nil, cfg, nil)
		require.Error(t, err)
	}

	_, err := NewPaginator(nil, staticHead{}, nil, DefaultPaginatorConfig(), nil)
	require.Error(t, err)
}
