package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func eventsFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("events", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("address", "", "")
	flags.StringSlice("events", nil, "")
	flags.Uint64("from", 0, "")
	flags.String("to", "latest", "")
	flags.Uint64("initial-window", 100000, "")
	flags.Duration("pause", 5*time.Second, "")
	flags.String("format", "jsonl", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadEventsDefaults(t *testing.T) {
	cfg, err := LoadEvents("", eventsFlags(t))
	require.NoError(t, err)

	require.Equal(t, "latest", cfg.ToBlock)
	require.Equal(t, "jsonl", cfg.Format)
	require.Equal(t, uint64(100000), cfg.Pagination.InitialWindow)
	require.Equal(t, uint64(10000), cfg.Pagination.TargetYield)
	require.Equal(t, 0.9, cfg.Pagination.SafetyFactor)
	require.Equal(t, uint64(1), cfg.Pagination.MinWindow)
	require.Equal(t, 64, cfg.Pagination.MaxOverflowRetries)
	require.Equal(t, 5*time.Second, cfg.Pagination.Pause)
	require.False(t, cfg.Pagination.ScanEmpty)
	require.Equal(t, 3, cfg.Chain.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Chain.RetryBackoff)
	require.True(t, cfg.Explorer.Fallback)
	require.Equal(t, 10*time.Second, cfg.Explorer.FallbackDelay)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEventsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "lpscope.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("rpc: http://file\ntarget-yield: 500\naddress: 0xfile\n"), 0o644))

	t.Setenv("LPSCOPE_RPC", "http://env")
	t.Setenv("LPSCOPE_MAX_OVERFLOW_RETRIES", "7")
	t.Setenv("LPSCOPE_EVENTS", "Swap, Sync")

	cfg, err := LoadEvents(cfgFile, eventsFlags(t, "--rpc", "http://flag", "--initial-window", "2048", "--format", "CSV"))
	require.NoError(t, err)

	require.Equal(t, "http://flag", cfg.Chain.RPCURL)
	require.Equal(t, uint64(2048), cfg.Pagination.InitialWindow)
	require.Equal(t, 7, cfg.Pagination.MaxOverflowRetries)
	require.Equal(t, uint64(500), cfg.Pagination.TargetYield)
	require.Equal(t, "0xfile", cfg.Address)
	require.Equal(t, []string{"Swap", "Sync"}, cfg.Events)
	require.Equal(t, "csv", cfg.Format)
}

func TestLoadEventsRejectsFormat(t *testing.T) {
	_, err := LoadEvents("", eventsFlags(t, "--format", "parquet"))
	require.Error(t, err)

	_, err = LoadEvents(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadArchive(t *testing.T) {
	flags := pflag.NewFlagSet("archive", pflag.ContinueOnError)
	flags.StringSlice("pool", nil, "")
	flags.Uint64("from", 0, "")
	flags.String("exchange", "", "")
	require.NoError(t, flags.Parse([]string{"--pool", "0xa,0xb", "--exchange", "sushi"}))

	cfg, err := LoadArchive("", flags)
	require.NoError(t, err)
	require.Equal(t, []string{"0xa", "0xb"}, cfg.Pools)
	require.Equal(t, uint64(9000000), cfg.FromBlock)
	require.Equal(t, "latest", cfg.ToBlock)
	require.Equal(t, "SUSHI", cfg.Exchange)
	require.Equal(t, 0.003, cfg.UniFee)
	require.Equal(t, "WETH", cfg.WETHSymbol)
	require.Equal(t, "./data/block_dates.tsv", cfg.BlockDates)
	require.Equal(t, "https://api.etherscan.io/api", cfg.Explorer.URL)
	require.True(t, cfg.Explorer.Fallback)
	require.Equal(t, 10*time.Second, cfg.Explorer.FallbackDelay)
	require.False(t, cfg.BuiltinABI)
}

func TestLoadArchiveABISource(t *testing.T) {
	flags := pflag.NewFlagSet("archive", pflag.ContinueOnError)
	flags.Bool("builtin-abi", false, "")
	flags.String("abi-file", "", "")
	flags.Bool("abi-fallback", true, "")
	require.NoError(t, flags.Parse([]string{"--builtin-abi", "--abi-file", "pair.json", "--abi-fallback=false"}))

	cfg, err := LoadArchive("", flags)
	require.NoError(t, err)
	require.True(t, cfg.BuiltinABI)
	require.Equal(t, "pair.json", cfg.Explorer.ABIFile)
	require.False(t, cfg.Explorer.Fallback)
}

func TestLoadBlockDate(t *testing.T) {
	now := time.Date(2022, 3, 4, 15, 0, 0, 0, time.UTC)
	flags := pflag.NewFlagSet("blockdate", pflag.ContinueOnError)
	flags.String("from-date", "", "")
	require.NoError(t, flags.Parse([]string{"--from-date", "2022-01-01"}))

	cfg, err := LoadBlockDate("", flags, now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), cfg.From)
	require.Equal(t, now, cfg.To)

	t.Setenv("LPSCOPE_TO_DATE", "yesterday")
	_, err = LoadBlockDate("", flags, now)
	require.Error(t, err)
}

func TestLoadDiscover(t *testing.T) {
	now := time.Date(2022, 3, 4, 15, 0, 0, 0, time.UTC)
	t.Setenv("LPSCOPE_TOKENS", "WBTC,USDC")

	cfg, err := LoadDiscover("", nil, now)
	require.NoError(t, err)
	require.Equal(t, "UNI", cfg.Exchange)
	require.Equal(t, 5000000.0, cfg.MinReserveUSD)
	require.Equal(t, []string{"WBTC", "USDC"}, cfg.Tokens)
	require.Equal(t, now, cfg.Date)

	url, err := cfg.Subgraph.URL("sushi")
	require.NoError(t, err)
	require.Contains(t, url, "sushiswap")

	t.Setenv("LPSCOPE_EXCHANGE", "curve")
	_, err = LoadDiscover("", nil, now)
	require.Error(t, err)
}

func TestLoadStats(t *testing.T) {
	cfg, err := LoadStats("", nil)
	require.NoError(t, err)
	require.Equal(t, time.Unix(1640991600, 0).UTC(), cfg.Start)
	require.Equal(t, 0.01, cfg.Stake)
	require.Equal(t, 365.0, cfg.DaysPerYear)
	require.Equal(t, "https://www.sushi.com/earn/api/pool/eth:", cfg.IncentivesURL)

	t.Setenv("LPSCOPE_INCENTIVES_URL", "http://localhost:8080/pool/eth:")
	cfg, err = LoadStats("", nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/pool/eth:", cfg.IncentivesURL)

	t.Setenv("LPSCOPE_STAKE", "1.5")
	_, err = LoadStats("", nil)
	require.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "1640991600", want: time.Unix(1640991600, 0).UTC()},
		{input: "2022-01-02", want: time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)},
		{input: "2022-01-02T03:04:05+02:00", want: time.Date(2022, 1, 2, 1, 4, 5, 0, time.UTC)},
		{input: " ", wantErr: true},
		{input: "01/02/2022", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTime(tt.input)
		if tt.wantErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		require.True(t, tt.want.Equal(got), tt.input)
	}
}
