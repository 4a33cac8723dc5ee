package indexer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0x21b8065d10f73ee2e260e5b47d3344d3ced7596e ", ""})
	require.NoError(t, err)
	require.Equal(t, []common.Address{common.HexToAddress("0x21b8065d10f73ee2e260e5b47d3344d3ced7596e")}, got)

	_, err = ParseAddresses([]string{"0xdead"})
	require.Error(t, err)
}

func TestParseEndBlock(t *testing.T) {
	for _, input := range []string{"", "latest", " LATEST "} {
		got, err := ParseEndBlock(input)
		require.NoError(t, err)
		require.Equal(t, Latest, got)
	}

	got, err := ParseEndBlock("15000000")
	require.NoError(t, err)
	require.Equal(t, uint64(15000000), got)

	_, err = ParseEndBlock("-1")
	require.Error(t, err)
}
