package config

import (
	"strings"

	"github.com/spf13/pflag"
)

// ArchiveConfig holds configuration for the archive command.
type ArchiveConfig struct {
	Chain      ChainOptions
	Pagination PaginationOptions
	Explorer   ExplorerOptions
	// BuiltinABI binds every pool to the bundled V2 pair ABI without asking the explorer.
	BuiltinABI bool
	Pools      []string
	Universe   string
	BlockDates string
	OutDir     string
	FromBlock  uint64
	ToBlock    string
	// Exchange tags pools missing from the universe.
	Exchange    string
	UniFee      float64
	SushiFee    float64
	WETHSymbol  string
	PGDSN       string
	MetricsAddr string
	LogLevel    string
}

// LoadArchive merges config file, environment variables, and flags into ArchiveConfig.
func LoadArchive(cfgFile string, flags *pflag.FlagSet) (ArchiveConfig, error) {
	defaults := explorerDefaults(paginationDefaults(map[string]interface{}{
		"from":        uint64(9000000),
		"to":          "latest",
		"block-dates": "./data/block_dates.tsv",
		"out-dir":     "./data",
		"exchange":    "UNI",
		"uni-fee":     0.003,
		"sushi-fee":   0.003,
		"weth-symbol": "WETH",
	}))
	v, err := load(cfgFile, flags, defaults)
	if err != nil {
		return ArchiveConfig{}, err
	}

	return ArchiveConfig{
		Chain:       chainOptions(v),
		Pagination:  paginationOptions(v),
		Explorer:    explorerOptions(v),
		BuiltinABI:  v.GetBool("builtin-abi"),
		Pools:       getStringSlice(v, "pool"),
		Universe:    v.GetString("universe"),
		BlockDates:  v.GetString("block-dates"),
		OutDir:      v.GetString("out-dir"),
		FromBlock:   v.GetUint64("from"),
		ToBlock:     v.GetString("to"),
		Exchange:    strings.ToUpper(v.GetString("exchange")),
		UniFee:      v.GetFloat64("uni-fee"),
		SushiFee:    v.GetFloat64("sushi-fee"),
		WETHSymbol:  v.GetString("weth-symbol"),
		PGDSN:       v.GetString("pg-dsn"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
