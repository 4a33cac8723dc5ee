package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SubgraphOptions holds the GraphQL endpoint settings shared by discover and stats.
type SubgraphOptions struct {
	UniURL    string
	SushiURL  string
	UserAgent string
	Timeout   time.Duration
}

// DiscoverConfig holds configuration for the discover command.
type DiscoverConfig struct {
	Subgraph      SubgraphOptions
	Exchange      string
	MinReserveUSD float64
	Tokens        []string
	Date          time.Time
	Out           string
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

func subgraphDefaults(into map[string]interface{}) map[string]interface{} {
	into["uni-url"] = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2"
	into["sushi-url"] = "https://api.thegraph.com/subgraphs/name/sushiswap/exchange"
	into["timeout"] = 30 * time.Second
	return into
}

func subgraphOptions(v *viper.Viper) SubgraphOptions {
	return SubgraphOptions{
		UniURL:    v.GetString("uni-url"),
		SushiURL:  v.GetString("sushi-url"),
		UserAgent: v.GetString("user-agent"),
		Timeout:   v.GetDuration("timeout"),
	}
}

// URL returns the endpoint of an exchange tag.
func (o SubgraphOptions) URL(exchange string) (string, error) {
	switch strings.ToUpper(exchange) {
	case "UNI":
		return o.UniURL, nil
	case "SUSHI":
		return o.SushiURL, nil
	default:
		return "", fmt.Errorf("unsupported exchange %q (want UNI or SUSHI)", exchange)
	}
}

// LoadDiscover merges config file, environment variables, and flags into DiscoverConfig.
func LoadDiscover(cfgFile string, flags *pflag.FlagSet, now time.Time) (DiscoverConfig, error) {
	v, err := load(cfgFile, flags, subgraphDefaults(map[string]interface{}{
		"exchange":        "UNI",
		"min-reserve-usd": 5000000.0,
		"out":             "./data/universe.csv",
	}))
	if err != nil {
		return DiscoverConfig{}, err
	}

	date := now.UTC()
	if raw := v.GetString("date"); raw != "" {
		if date, err = ParseTime(raw); err != nil {
			return DiscoverConfig{}, fmt.Errorf("date: %w", err)
		}
	}

	cfg := DiscoverConfig{
		Subgraph:      subgraphOptions(v),
		Exchange:      strings.ToUpper(v.GetString("exchange")),
		MinReserveUSD: v.GetFloat64("min-reserve-usd"),
		Tokens:        getStringSlice(v, "tokens"),
		Date:          date,
		Out:           v.GetString("out"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}
	if _, err := cfg.Subgraph.URL(cfg.Exchange); err != nil {
		return DiscoverConfig{}, err
	}
	return cfg, nil
}
