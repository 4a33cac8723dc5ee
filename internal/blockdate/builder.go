package blockdate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/retry"
)

// Chain is the subset of the RPC client the builder needs.
type Chain interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Builder derives the table from block header timestamps.
type Builder struct {
	chain        Chain
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewBuilder(c Chain, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{chain: c, maxRetries: maxRetries, retryBackoff: retryBackoff, logger: logger}
}

// Build returns one entry per UTC day in [from, to]: the first block whose timestamp
// is at or after midnight. Days past the chain head are skipped.
func (b *Builder) Build(ctx context.Context, from, to time.Time) ([]Entry, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("end day %s is before start day %s", to.Format(DateLayout), from.Format(DateLayout))
	}

	head, err := b.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}
	headTS, err := b.timestamp(ctx, head)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	low := uint64(0)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		midnight := uint64(day.Unix())
		if headTS < midnight {
			b.logger.Info("day past chain head, stopping", zap.String("date", day.Format(DateLayout)))
			break
		}

		block, err := b.firstBlockAtOrAfter(ctx, low, head, midnight)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", day.Format(DateLayout), err)
		}
		if len(entries) > 0 && block == entries[len(entries)-1].Block {
			// a day without blocks shares its successor's first block
			entries = entries[:len(entries)-1]
		}
		entries = append(entries, Entry{Date: day.Format(DateLayout), Block: block})
		b.logger.Debug("day resolved", zap.String("date", day.Format(DateLayout)), zap.Uint64("block", block))
		low = block
	}

	return entries, nil
}

// firstBlockAtOrAfter binary searches [low, high] for the first block with timestamp >= ts.
// The timestamp of high must be >= ts.
func (b *Builder) firstBlockAtOrAfter(ctx context.Context, low, high, ts uint64) (uint64, error) {
	for low < high {
		mid := low + (high-low)/2
		midTS, err := b.timestamp(ctx, mid)
		if err != nil {
			return 0, err
		}
		if midTS >= ts {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return low, nil
}

func (b *Builder) timestamp(ctx context.Context, number uint64) (uint64, error) {
	var ts uint64
	err := retry.Do(ctx, b.maxRetries, b.retryBackoff, func(err error) bool {
		return chain.Classify(err) == chain.ClassTransient
	}, func(ctx context.Context) error {
		var err error
		ts, err = b.chain.BlockTimestamp(ctx, number)
		if err != nil {
			b.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("block timestamp %d: %w", number, err)
	}
	return ts, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
