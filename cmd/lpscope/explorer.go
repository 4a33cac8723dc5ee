package main

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"lpAnalytics/internal/archive"
	"lpAnalytics/internal/config"
	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/explorer"
)

func addExplorerFlags(flags *pflag.FlagSet) {
	flags.String("explorer-url", explorer.DefaultBaseURL, "block explorer API URL")
	flags.String("explorer-api-key", "", "block explorer API key")
	flags.Bool("abi-fallback", true, "use the fallback contract ABI when the contract is unverified")
	flags.String("abi-fallback-address", explorer.DefaultFallbackAddress, "contract whose ABI substitutes an unverified one")
	flags.Duration("abi-fallback-delay", explorer.DefaultConfig().FallbackDelay, "pause before the fallback request")
	flags.String("abi-file", "", "read the ABI from this file instead of the explorer")
}

// newContractResolver picks the ABI source: the abi file, then builtinABI when set, then the explorer.
func newContractResolver(opts config.ExplorerOptions, builtinABI string, logger *zap.Logger) (archive.ContractResolver, error) {
	if opts.ABIFile != "" {
		resolver, err := explorer.NewFileResolver(opts.ABIFile)
		if err != nil {
			return nil, err
		}
		return resolver, nil
	}
	if builtinABI != "" {
		resolver, err := explorer.NewStaticResolver(builtinABI)
		if err != nil {
			return nil, err
		}
		return resolver, nil
	}

	explorerCfg := explorer.DefaultConfig()
	explorerCfg.BaseURL = opts.URL
	explorerCfg.APIKey = opts.APIKey
	explorerCfg.FallbackAddress = opts.FallbackAddress
	explorerCfg.FallbackDelay = opts.FallbackDelay
	explorerCfg.DisableFallback = !opts.Fallback

	resolver, err := explorer.NewResolver(explorerCfg, nil, logger)
	if err != nil {
		return nil, err
	}
	return resolver, nil
}

// pairABI returns the bundled V2 pair ABI when enabled.
func pairABI(enabled bool) string {
	if enabled {
		return contract.UniswapV2PairABIJSON
	}
	return ""
}
