package main

import (
	"go.uber.org/zap"

	"lpAnalytics/internal/chain"
	"lpAnalytics/internal/config"
	"lpAnalytics/internal/indexer"
)

// newPaginator wires the window fetcher, pacer and adaptive controller over one chain client.
func newPaginator(client *chain.Client, chainOpts config.ChainOptions, opts config.PaginationOptions, logger *zap.Logger) (*indexer.Paginator, error) {
	fetcher := indexer.NewWindowFetcher(client, indexer.FetcherConfig{
		MaxRetries:   chainOpts.MaxRetries,
		RetryBackoff: chainOpts.RetryBackoff,
	}, logger)

	return indexer.NewPaginator(fetcher, client, indexer.NewPacer(opts.Pause), indexer.PaginatorConfig{
		InitialWindow:      opts.InitialWindow,
		TargetYield:        opts.TargetYield,
		SafetyFactor:       opts.SafetyFactor,
		MinWindow:          opts.MinWindow,
		MaxWindow:          opts.MaxWindow,
		MaxOverflowRetries: opts.MaxOverflowRetries,
		ScanEmpty:          opts.ScanEmpty,
	}, logger)
}
