package indexer

import (
	"context"
	"fmt"
)

// Latest is the open end bound. It resolves to the chain head.
const Latest = ^uint64(0)

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// Blocks returns the number of blocks covered by the range.
func (r BlockRange) Blocks() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

// HeadReader reports the chain head.
type HeadReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// ResolveRange turns [start, end] into a concrete range. end is capped at the head;
// Latest resolves to the head itself.
func ResolveRange(ctx context.Context, head HeadReader, start, end uint64) (BlockRange, error) {
	if head == nil {
		return BlockRange{}, fmt.Errorf("head reader is nil")
	}
	latest, err := head.LatestBlockNumber(ctx)
	if err != nil {
		return BlockRange{}, fmt.Errorf("get latest block: %w", err)
	}
	if end == Latest || end > latest {
		end = latest
	}
	if start > end {
		return BlockRange{}, fmt.Errorf("start block %d is past end block %d", start, end)
	}
	return BlockRange{From: start, To: end}, nil
}
