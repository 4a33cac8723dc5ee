package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
	"lpAnalytics/internal/retry"
)

// LogFilterer runs a single eth_getLogs query.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// FetcherConfig holds the retry policy for transient provider failures.
type FetcherConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// WindowFetcher retrieves and decodes one event over one block window.
type WindowFetcher struct {
	filterer LogFilterer
	cfg      FetcherConfig
	logger   *zap.Logger
}

func NewWindowFetcher(filterer LogFilterer, cfg FetcherConfig, logger *zap.Logger) *WindowFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowFetcher{filterer: filterer, cfg: cfg, logger: logger}
}

// FetchWindow returns the decoded records of eventName in rng, in provider order.
// A failed provider call surfaces as a *WindowError; transient failures are retried first.
func (f *WindowFetcher) FetchWindow(ctx context.Context, ref contract.Ref, eventName string, rng BlockRange) ([]model.EventRecord, error) {
	if f.filterer == nil {
		return nil, fmt.Errorf("log filterer is nil")
	}
	event, err := ref.Event(eventName)
	if err != nil {
		return nil, err
	}

	var topic0 []common.Hash
	if !event.Anonymous {
		topic0 = []common.Hash{event.ID}
	}
	addresses := []common.Address{ref.Address}

	var logs []types.Log
	err = retry.Do(ctx, f.cfg.MaxRetries, f.cfg.RetryBackoff, isTransient, func(ctx context.Context) error {
		var callErr error
		logs, callErr = f.filterer.FilterLogs(ctx, rng.From, rng.To, addresses, topic0)
		if callErr != nil {
			f.logger.Debug("filter logs failed",
				zap.Error(callErr),
				zap.Uint64("from", rng.From),
				zap.Uint64("to", rng.To),
				zap.Stringer("class", chain.Classify(callErr)),
			)
		}
		return callErr
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		class := chain.Classify(err)
		if class == chain.ClassCanceled {
			return nil, err
		}
		return nil, &WindowError{Range: rng, Class: class, Err: err}
	}

	records := make([]model.EventRecord, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		record, err := contract.DecodeLog(event, log)
		if err != nil {
			return nil, fmt.Errorf("decode %s log %s/%d: %w", eventName, log.TxHash.Hex(), log.Index, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func isTransient(err error) bool {
	return chain.Classify(err) == chain.ClassTransient
}
