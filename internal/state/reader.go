package state

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
)

// Reader queries contract view functions at historical blocks.
//
// Failed reads, including pruned state on non-archive nodes, are reported as zero
// and logged at Warn. A zero value therefore does not prove the on-chain value was zero.
type Reader struct {
	caller contract.Caller
	logger *zap.Logger
}

func NewReader(caller contract.Caller, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, logger: logger}
}

// ReadAt calls method on ref pinned to block and returns its first output as an integer.
func (r *Reader) ReadAt(ctx context.Context, ref contract.Ref, method string, block uint64) *big.Int {
	values, err := contract.Call(ctx, r.caller, ref.Address, ref.ABI, method, new(big.Int).SetUint64(block))
	if err == nil {
		var value *big.Int
		if value, err = contract.AsBigInt(values[0]); err == nil {
			return value
		}
	}
	r.logger.Warn("state unavailable, using zero",
		zap.String("contract", ref.Checksum()),
		zap.String("method", method),
		zap.Uint64("block", block),
		zap.Error(err),
	)
	return new(big.Int)
}

// Supply reads totalSupply at every block. It only fails when ctx ends.
func (r *Reader) Supply(ctx context.Context, ref contract.Ref, blocks []uint64) ([]model.SupplySnapshot, error) {
	snapshots := make([]model.SupplySnapshot, 0, len(blocks))
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, model.SupplySnapshot{
			BlockNumber: block,
			Value:       r.ReadAt(ctx, ref, "totalSupply", block),
		})
	}
	return snapshots, nil
}
