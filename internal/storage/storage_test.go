package storage

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"lpAnalytics/internal/model"
	"lpAnalytics/internal/normalize"
)

var testPool = common.HexToAddress("0x21b8065d10f73ee2e260e5b47d3344d3ced7596e")

func syncTable(reserves ...int64) normalize.Table {
	records := make([]model.EventRecord, 0, len(reserves))
	for i, r := range reserves {
		records = append(records, model.EventRecord{
			BlockNumber: uint64(100 + i),
			Address:     testPool,
			EventName:   "Sync",
			LogIndex:    uint(i),
			Args: map[string]interface{}{
				"reserve0": big.NewInt(r),
				"reserve1": new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil),
			},
			ArgNames: []string{"reserve0", "reserve1"},
		})
	}
	return normalize.Normalize(records)
}

func TestJsonlStorageAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutEventBatch(syncTable(1, 2)))
	require.NoError(t, store.PutEventBatch(syncTable(3)))
	require.NoError(t, store.PutEventBatch(normalize.Table{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var row map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &row))
	require.Equal(t, "3", row["reserve0"])
	require.Equal(t, "1000000000000000000000000000000", row["reserve1"])
	require.Equal(t, "Sync", row["event_name"])
	require.Equal(t, "100", row["block_number"])
	require.Equal(t, testPool.Hex(), row["address"])
}

func TestCsvStorageWritesPerEventFile(t *testing.T) {
	dir := t.TempDir()
	store := NewCsvStorage(dir)

	require.NoError(t, store.PutEventBatch(syncTable(7)))

	data, err := os.ReadFile(filepath.Join(dir, strings.ToLower(testPool.Hex())+"_Sync.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "address,block_hash,block_number"))
	require.True(t, strings.HasSuffix(lines[0], "reserve0,reserve1"))

	// empty batches leave no file behind
	empty := t.TempDir()
	require.NoError(t, NewCsvStorage(empty).PutEventBatch(normalize.Table{}))
	entries, err := os.ReadDir(empty)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteDailySummaries(t *testing.T) {
	supply := "1000"
	r0, r1, price, tvl := 10.5, 2.0, 5.25, 4.0
	block := uint64(12345)
	rows := []model.DailySummary{
		{Pool: "0xabc", Date: "2021-01-01", FeesETH: 0.3, VolumeETH: 100, Supply: &supply,
			Reserve0: &r0, Reserve1: &r1, TokenVsWETH: &price, TVLETH: &tvl, BlockNumber: &block},
		{Pool: "0xabc", Date: "2021-01-02", FeesETH: 0.003, VolumeETH: 1},
	}

	path := SummaryPath(t.TempDir(), "0xABC")
	require.True(t, strings.HasSuffix(path, "0xabc_summary.csv"))
	require.NoError(t, WriteDailySummaries(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"day,ETH fees,ETH vol,Supply,reserve0_adj,reserve1_adj,Token vs WETH,TVL ETH,blockNumber\n"+
			"2021-01-01,0.3,100,1000,10.5,2,5.25,4,12345\n"+
			"2021-01-02,0.003,1,,,,,,\n",
		string(data))

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestWriteLPTables(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteLPSummaries(filepath.Join(dir, "final_lp_stats.csv"), []model.LPSummary{
		{Pool: "0xabc", Exchange: "UNI", Pair: "DAI_WETH", NbDays: 2, CumulRet: 0.1},
	}))
	data, err := os.ReadFile(filepath.Join(dir, "final_lp_stats.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "0xabc,UNI,2,0,0.1,0,0,0,0,0,0,0,0,DAI_WETH,0,0", lines[1])

	require.NoError(t, WriteLPHistory(filepath.Join(dir, "history.csv"), []model.LPDay{{Date: "2021-01-01", NAVETH: 1}}))
	data, err = os.ReadFile(filepath.Join(dir, "history.csv"))
	require.NoError(t, err)
	require.Contains(t, string(data), "2021-01-01,0,0,0,0,0,1,0,0,0,0")
}

func TestUniverseRoundTrip(t *testing.T) {
	pools := []model.PoolInfo{
		{Address: "0xa478c2975ab1ea89e8196811f51a7b7ade33eb11", Token0: "DAI", Token1: "WETH", Token0Decimals: 18, Token1Decimals: 18, Exchange: "UNI"},
		{Address: "0x397ff1542f962076d0bfe58ea045ffa2d347aca0", Token0: "USDC", Token1: "WETH", Token0Decimals: 6, Token1Decimals: 18, Exchange: "SUSHI"},
	}
	path := filepath.Join(t.TempDir(), "universe.csv")
	require.NoError(t, WriteUniverse(path, pools))

	got, err := LoadUniverse(path)
	require.NoError(t, err)
	require.Equal(t, pools, got)
}

func TestReadUniverse(t *testing.T) {
	input := "exchange,id,token0.symbol,token1.symbol,token0.decimals,token1.decimals,reserveUSD\n" +
		"UNI,0xabc,WBTC,WETH,8.0,18,1e9\n"
	pools, err := ReadUniverse(bytes.NewBufferString(input))
	require.NoError(t, err)
	require.Equal(t, []model.PoolInfo{{Address: "0xabc", Token0: "WBTC", Token1: "WETH", Token0Decimals: 8, Token1Decimals: 18, Exchange: "UNI"}}, pools)

	_, err = ReadUniverse(bytes.NewBufferString("id,token0.symbol\n0xabc,DAI\n"))
	require.Error(t, err)

	_, err = ReadUniverse(bytes.NewBufferString(strings.Join(universeHeader, ",") + "\n0xabc,A,B,1.5,18,UNI\n"))
	require.Error(t, err)
}
