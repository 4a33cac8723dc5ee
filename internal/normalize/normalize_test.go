package normalize

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"lpAnalytics/internal/model"
)

func syncRecord(block uint64) model.EventRecord {
	return model.EventRecord{
		BlockNumber: block,
		BlockHash:   common.HexToHash("0xabc"),
		TxHash:      common.HexToHash("0xdef"),
		TxIndex:     2,
		LogIndex:    5,
		Address:     common.HexToAddress("0x21b8065d10f73ee2e260e5b47d3344d3ced7596e"),
		EventName:   "Sync",
		Args: map[string]interface{}{
			"reserve0": big.NewInt(100),
			"reserve1": big.NewInt(200),
		},
		ArgNames: []string{"reserve0", "reserve1"},
	}
}

func TestNormalizeEmpty(t *testing.T) {
	table := Normalize(nil)
	require.Zero(t, table.Len())
	require.Empty(t, table.Columns)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
}

func TestNormalizeSingleRecord(t *testing.T) {
	table := Normalize([]model.EventRecord{syncRecord(10)})
	require.Equal(t, 1, table.Len())
	require.Equal(t, []string{
		"address", "block_hash", "block_number", "event_name", "log_index",
		"transaction_hash", "transaction_index", "reserve0", "reserve1",
	}, table.Columns)
	require.NotContains(t, table.Columns, "args")

	row := table.Rows[0]
	require.NotContains(t, row, "args")
	require.Equal(t, "0x21b8065D10f73EE2e260e5B47D3344d3Ced7596E", row["address"])
	require.IsType(t, "", row["block_hash"])
	require.IsType(t, "", row["transaction_hash"])
	require.Equal(t, "Sync", row["event_name"])
	require.Equal(t, uint64(10), row["block_number"])

	reserve0, err := row.BigInt("reserve0")
	require.NoError(t, err)
	require.Equal(t, int64(100), reserve0.Int64())
	block, err := row.Uint64("block_number")
	require.NoError(t, err)
	require.Equal(t, uint64(10), block)
	_, err = row.Uint64("missing")
	require.Error(t, err)
}

func TestNormalizeMixedEvents(t *testing.T) {
	swap := syncRecord(11)
	swap.EventName = "Swap"
	swap.Args = map[string]interface{}{
		"sender":  common.HexToAddress("0x01"),
		"address": common.HexToAddress("0x02"),
	}
	swap.ArgNames = []string{"sender", "address"}

	table := Normalize([]model.EventRecord{syncRecord(10), swap})
	require.Equal(t, 2, table.Len())
	require.Contains(t, table.Columns, "sender")
	require.Contains(t, table.Columns, "arg_address")
	require.Equal(t, common.HexToAddress("0x02"), table.Rows[1]["arg_address"])
	_, ok := table.Rows[1]["reserve0"]
	require.False(t, ok)
}

func TestWriteCSV(t *testing.T) {
	table := Normalize([]model.EventRecord{syncRecord(10)})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	want := "address,block_hash,block_number,event_name,log_index,transaction_hash,transaction_index,reserve0,reserve1\n" +
		"0x21b8065D10f73EE2e260e5B47D3344d3Ced7596E," +
		"0x0000000000000000000000000000000000000000000000000000000000000abc," +
		"10,Sync,5," +
		"0x0000000000000000000000000000000000000000000000000000000000000def," +
		"2,100,200\n"
	require.Equal(t, want, buf.String())
}
