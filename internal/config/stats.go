package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for the stats command.
type StatsConfig struct {
	Subgraph      SubgraphOptions
	Universe      string
	Start         time.Time
	OutDir        string
	Stake         float64
	UniFee        float64
	SushiFee      float64
	DaysPerYear   float64
	WETHSymbol    string
	PGDSN         string
	// IncentivesURL is prefixed to Sushiswap pool addresses; empty skips the APR lookup.
	IncentivesURL string
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := load(cfgFile, flags, subgraphDefaults(map[string]interface{}{
		"universe":       "./data/universe.csv",
		"start-ts":       "1640991600",
		"out-dir":        "./data/stats",
		"stake":          0.01,
		"uni-fee":        0.003,
		"sushi-fee":      0.003,
		"days-per-year":  365.0,
		"weth-symbol":    "WETH",
		"incentives-url": "https://www.sushi.com/earn/api/pool/eth:",
	}))
	if err != nil {
		return StatsConfig{}, err
	}

	start, err := ParseTime(v.GetString("start-ts"))
	if err != nil {
		return StatsConfig{}, fmt.Errorf("start-ts: %w", err)
	}

	cfg := StatsConfig{
		Subgraph:      subgraphOptions(v),
		Universe:      v.GetString("universe"),
		Start:         start,
		OutDir:        v.GetString("out-dir"),
		Stake:         v.GetFloat64("stake"),
		UniFee:        v.GetFloat64("uni-fee"),
		SushiFee:      v.GetFloat64("sushi-fee"),
		DaysPerYear:   v.GetFloat64("days-per-year"),
		WETHSymbol:    v.GetString("weth-symbol"),
		PGDSN:         v.GetString("pg-dsn"),
		IncentivesURL: v.GetString("incentives-url"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.Stake <= 0 || cfg.Stake > 1 {
		return StatsConfig{}, fmt.Errorf("stake must be in (0, 1], got %v", cfg.Stake)
	}
	return cfg, nil
}
