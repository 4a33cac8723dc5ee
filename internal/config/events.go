package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// EventsConfig holds configuration for the events command.
type EventsConfig struct {
	Chain      ChainOptions
	Pagination PaginationOptions
	Explorer   ExplorerOptions
	Address    string
	Events     []string
	FromBlock  uint64
	// ToBlock is a block number or "latest".
	ToBlock     string
	Out         string
	Format      string
	MetricsAddr string
	LogLevel    string
}

// LoadEvents merges config file, environment variables, and flags into EventsConfig.
func LoadEvents(cfgFile string, flags *pflag.FlagSet) (EventsConfig, error) {
	defaults := explorerDefaults(paginationDefaults(map[string]interface{}{
		"to":     "latest",
		"out":    "./data/events.jsonl",
		"format": "jsonl",
	}))
	v, err := load(cfgFile, flags, defaults)
	if err != nil {
		return EventsConfig{}, err
	}

	cfg := EventsConfig{
		Chain:       chainOptions(v),
		Pagination:  paginationOptions(v),
		Explorer:    explorerOptions(v),
		Address:     strings.TrimSpace(v.GetString("address")),
		Events:      getStringSlice(v, "events"),
		FromBlock:   v.GetUint64("from"),
		ToBlock:     v.GetString("to"),
		Out:         v.GetString("out"),
		Format:      strings.ToLower(v.GetString("format")),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}

	if cfg.Format != "jsonl" && cfg.Format != "csv" {
		return EventsConfig{}, fmt.Errorf("unsupported format %q (want jsonl or csv)", cfg.Format)
	}

	return cfg, nil
}
