package indexer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
)

// maxWindowCap bounds an unbounded MaxWindow so rescaling never overflows.
const maxWindowCap = uint64(1) << 40

// WindowSource fetches one event over one block window. *WindowFetcher implements it.
type WindowSource interface {
	FetchWindow(ctx context.Context, ref contract.Ref, eventName string, rng BlockRange) ([]model.EventRecord, error)
}

// PaginatorConfig tunes the adaptive window.
type PaginatorConfig struct {
	// InitialWindow is the size in blocks of the first window.
	InitialWindow uint64
	// TargetYield is the number of records a window should return.
	TargetYield uint64
	// SafetyFactor damps the rescale so the next window lands under the provider cap.
	SafetyFactor float64
	MinWindow    uint64
	// MaxWindow of 0 leaves the window unbounded.
	MaxWindow          uint64
	MaxOverflowRetries int
	// ScanEmpty keeps scanning past windows with no records instead of stopping.
	ScanEmpty bool
}

func DefaultPaginatorConfig() PaginatorConfig {
	return PaginatorConfig{
		InitialWindow:      100000,
		TargetYield:        10000,
		SafetyFactor:       0.9,
		MinWindow:          1,
		MaxOverflowRetries: 64,
	}
}

func (c PaginatorConfig) validate() error {
	if c.InitialWindow == 0 {
		return fmt.Errorf("initial window must be greater than zero")
	}
	if c.TargetYield == 0 {
		return fmt.Errorf("target yield must be greater than zero")
	}
	if c.SafetyFactor <= 0 || c.SafetyFactor > 1 {
		return fmt.Errorf("safety factor must be in (0, 1], got %v", c.SafetyFactor)
	}
	if c.MinWindow == 0 {
		return fmt.Errorf("min window must be at least one block")
	}
	if c.MaxWindow != 0 && c.MaxWindow < c.MinWindow {
		return fmt.Errorf("max window %d is below min window %d", c.MaxWindow, c.MinWindow)
	}
	if c.MaxOverflowRetries < 0 {
		return fmt.Errorf("max overflow retries must not be negative")
	}
	return nil
}

// Paginator drives a WindowSource backward from the end block to the start block,
// resizing the window after every call to track the target yield.
// A Paginator is not safe for concurrent FetchAll calls.
type Paginator struct {
	source WindowSource
	head   HeadReader
	pacer  *Pacer
	cfg    PaginatorConfig
	logger *zap.Logger
}

func NewPaginator(source WindowSource, head HeadReader, pacer *Pacer, cfg PaginatorConfig, logger *zap.Logger) (*Paginator, error) {
	if source == nil {
		return nil, fmt.Errorf("window source is nil")
	}
	if head == nil {
		return nil, fmt.Errorf("head reader is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{source: source, head: head, pacer: pacer, cfg: cfg, logger: logger}, nil
}

type paginationState struct {
	window    uint64
	cursor    uint64
	low       uint64
	overflows int
	// batches are held newest first, each sorted ascending.
	batches [][]model.EventRecord
}

// FetchAll returns every eventName record of ref between start and end (or Latest),
// ordered by block number then log index. Duplicates are not suppressed.
//
// The scan stops at the first window with no records unless ScanEmpty is set.
func (p *Paginator) FetchAll(ctx context.Context, ref contract.Ref, eventName string, start, end uint64) ([]model.EventRecord, error) {
	rng, err := ResolveRange(ctx, p.head, start, end)
	if err != nil {
		return nil, err
	}

	st := paginationState{window: p.clamp(p.cfg.InitialWindow), cursor: rng.To}
	st.low = lowerBound(rng.From, st.cursor, st.window)

	for {
		if err := p.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		window := BlockRange{From: st.low, To: st.cursor}
		WindowSizeSet(eventName, st.window)

		records, err := p.source.FetchWindow(ctx, ref, eventName, window)
		if err != nil {
			if !errors.Is(err, ErrWindowTooLarge) {
				WindowCallInc(eventName, "error")
				return nil, err
			}
			WindowCallInc(eventName, "overflow")
			WindowOverflowInc(eventName)

			st.overflows++
			// halve the span actually queried; near the start block it is narrower than the window
			if span := window.Blocks(); st.window > span {
				st.window = span
			}
			next := st.window / 2
			if next < p.cfg.MinWindow || st.overflows > p.cfg.MaxOverflowRetries {
				return nil, fmt.Errorf("%w: window %s after %d consecutive overflows: %w",
					ErrFetchExhausted, window, st.overflows, err)
			}
			p.logger.Warn("window rejected, shrinking",
				zap.String("event", eventName),
				zap.Uint64("from", window.From),
				zap.Uint64("to", window.To),
				zap.Uint64("window", st.window),
				zap.Uint64("next_window", next),
				zap.Error(err),
			)
			st.window = next
			st.low = lowerBound(rng.From, st.cursor, st.window)
			continue
		}

		WindowCallInc(eventName, "ok")
		RecordsAdd(eventName, len(records))
		st.overflows = 0

		p.logger.Info("window fetched",
			zap.String("event", eventName),
			zap.Uint64("from", window.From),
			zap.Uint64("to", window.To),
			zap.Uint64("window", st.window),
			zap.Int("records", len(records)),
		)

		if len(records) == 0 {
			if !p.cfg.ScanEmpty {
				break
			}
			st.window = p.clamp(saturatingDouble(st.window))
		} else {
			sortRecords(records)
			st.batches = append(st.batches, records)
			st.window = p.rescale(st.window, len(records))
		}

		if st.low <= rng.From {
			break
		}
		st.cursor = st.low - 1
		st.low = lowerBound(rng.From, st.cursor, st.window)
	}

	return assemble(st.batches), nil
}

// rescale sizes the next window so it is expected to yield about SafetyFactor * TargetYield records.
func (p *Paginator) rescale(window uint64, got int) uint64 {
	next := float64(window) * float64(p.cfg.TargetYield) / float64(got) * p.cfg.SafetyFactor
	if next < 1 {
		next = 1
	}
	if next > float64(maxWindowCap) {
		return p.clamp(maxWindowCap)
	}
	return p.clamp(uint64(math.Floor(next)))
}

func (p *Paginator) clamp(window uint64) uint64 {
	upper := p.cfg.MaxWindow
	if upper == 0 || upper > maxWindowCap {
		upper = maxWindowCap
	}
	if window > upper {
		window = upper
	}
	if window < p.cfg.MinWindow {
		window = p.cfg.MinWindow
	}
	return window
}

// lowerBound returns the first block of a window of size blocks ending at cursor, never below start.
func lowerBound(start, cursor, size uint64) uint64 {
	if cursor+1 < start+size {
		return start
	}
	return cursor + 1 - size
}

func saturatingDouble(v uint64) uint64 {
	if v > math.MaxUint64/2 {
		return math.MaxUint64
	}
	return v * 2
}

func sortRecords(records []model.EventRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].BlockNumber != records[j].BlockNumber {
			return records[i].BlockNumber < records[j].BlockNumber
		}
		return records[i].LogIndex < records[j].LogIndex
	})
}

func assemble(batches [][]model.EventRecord) []model.EventRecord {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	out := make([]model.EventRecord, 0, total)
	for i := len(batches) - 1; i >= 0; i-- {
		out = append(out, batches[i]...)
	}
	return out
}
