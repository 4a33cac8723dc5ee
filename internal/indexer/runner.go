package indexer

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
	"lpAnalytics/internal/normalize"
	"lpAnalytics/internal/storage"
)

// EventFetcher pages one event across a block range. *Paginator implements it.
type EventFetcher interface {
	FetchAll(ctx context.Context, ref contract.Ref, eventName string, start, end uint64) ([]model.EventRecord, error)
}

// RunConfig holds runtime settings for an event export.
type RunConfig struct {
	StartBlock uint64
	EndBlock   uint64
	// Events to export; empty means every event of the contract ABI.
	Events []string
}

// Runner exports the events of one contract, deduplicated and normalized, to storage.
type Runner struct {
	cfg     RunConfig
	fetcher EventFetcher
	storage storage.Storage
	logger  *zap.Logger
	seen    map[string]struct{}
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, fetcher EventFetcher, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		storage: storageSink,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Run exports each configured event in turn.
func (r *Runner) Run(ctx context.Context, ref contract.Ref) error {
	if r.fetcher == nil {
		return fmt.Errorf("event fetcher is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}

	events, err := r.eventNames(ref)
	if err != nil {
		return err
	}

	for _, name := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		records, err := r.fetcher.FetchAll(ctx, ref, name, r.cfg.StartBlock, r.cfg.EndBlock)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}

		unique := make([]model.EventRecord, 0, len(records))
		for _, record := range records {
			if r.isDuplicate(record) {
				continue
			}
			unique = append(unique, record)
		}

		if err := r.storage.PutEventBatch(normalize.Normalize(unique)); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}

		r.logger.Info("event complete",
			zap.String("contract", ref.Checksum()),
			zap.String("event", name),
			zap.Int("records", len(unique)),
			zap.Int("duplicates", len(records)-len(unique)),
		)
	}

	return nil
}

func (r *Runner) eventNames(ref contract.Ref) ([]string, error) {
	if len(r.cfg.Events) > 0 {
		for _, name := range r.cfg.Events {
			if _, err := ref.Event(name); err != nil {
				return nil, err
			}
		}
		return r.cfg.Events, nil
	}

	names := make([]string, 0, len(ref.ABI.Events))
	for name := range ref.ABI.Events {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("abi of %s declares no events", ref.Checksum())
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runner) isDuplicate(record model.EventRecord) bool {
	id := fmt.Sprintf("%d:%s:%d", record.BlockNumber, record.TxHash.Hex(), record.LogIndex)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
