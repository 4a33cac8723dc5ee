package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// BlockDateConfig holds configuration for the blockdate command.
type BlockDateConfig struct {
	Chain    ChainOptions
	From     time.Time
	To       time.Time
	Out      string
	LogLevel string
}

// LoadBlockDate merges config file, environment variables, and flags into BlockDateConfig.
func LoadBlockDate(cfgFile string, flags *pflag.FlagSet, now time.Time) (BlockDateConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"from-date": "2020-01-01",
		"out":       "./data/block_dates.tsv",
	})
	if err != nil {
		return BlockDateConfig{}, err
	}

	from, err := ParseTime(v.GetString("from-date"))
	if err != nil {
		return BlockDateConfig{}, fmt.Errorf("from-date: %w", err)
	}
	to := now.UTC()
	if raw := v.GetString("to-date"); raw != "" {
		if to, err = ParseTime(raw); err != nil {
			return BlockDateConfig{}, fmt.Errorf("to-date: %w", err)
		}
	}

	return BlockDateConfig{
		Chain:    chainOptions(v),
		From:     from,
		To:       to,
		Out:      v.GetString("out"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// ParseTime parses unix seconds, a YYYY-MM-DD date or an RFC3339 timestamp, in UTC.
func ParseTime(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0).UTC(), nil
	}

	if tm, err := time.Parse("2006-01-02", input); err == nil {
		return tm, nil
	}
	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, err
	}
	return tm.UTC(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
