package state

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/require"

	"lpAnalytics/internal/contract"
)

type archiveStub struct {
	supply map[uint64]*big.Int
	cancel context.CancelFunc
	calls  int
}

func (s *archiveStub) CallContract(_ context.Context, _ ethereum.CallMsg, block *big.Int) ([]byte, error) {
	s.calls++
	if s.cancel != nil {
		s.cancel()
	}
	value, ok := s.supply[block.Uint64()]
	if !ok {
		return nil, errors.New("missing trie node 5f3a... (path ) state is not available")
	}
	pairABI, err := contract.UniswapV2PairABI()
	if err != nil {
		return nil, err
	}
	return pairABI.Methods["totalSupply"].Outputs.Pack(value)
}

func pairRef(t *testing.T) contract.Ref {
	t.Helper()
	ref, err := contract.NewRef("0x21b8065d10f73ee2e260e5b47d3344d3ced7596e", contract.UniswapV2PairABIJSON)
	require.NoError(t, err)
	return ref
}

func TestReadAt(t *testing.T) {
	stub := &archiveStub{supply: map[uint64]*big.Int{100: big.NewInt(777)}}
	reader := NewReader(stub, nil)

	require.Equal(t, int64(777), reader.ReadAt(context.Background(), pairRef(t), "totalSupply", 100).Int64())
}

func TestReadAtStateUnavailableIsZero(t *testing.T) {
	stub := &archiveStub{supply: map[uint64]*big.Int{}}
	reader := NewReader(stub, nil)

	value := reader.ReadAt(context.Background(), pairRef(t), "totalSupply", 1)
	require.NotNil(t, value)
	require.Zero(t, value.Sign())
}

func TestReadAtUnknownMethodIsZero(t *testing.T) {
	reader := NewReader(&archiveStub{}, nil)

	value := reader.ReadAt(context.Background(), pairRef(t), "balanceOf", 1)
	require.Zero(t, value.Sign())
}

func TestSupply(t *testing.T) {
	stub := &archiveStub{supply: map[uint64]*big.Int{10: big.NewInt(1), 30: big.NewInt(3)}}
	reader := NewReader(stub, nil)

	snapshots, err := reader.Supply(context.Background(), pairRef(t), []uint64{10, 20, 30})
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	require.Equal(t, uint64(20), snapshots[1].BlockNumber)
	require.Zero(t, snapshots[1].Value.Sign())
	require.Equal(t, int64(3), snapshots[2].Value.Int64())
}

func TestSupplyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &archiveStub{supply: map[uint64]*big.Int{10: big.NewInt(1)}, cancel: cancel}
	reader := NewReader(stub, nil)

	_, err := reader.Supply(ctx, pairRef(t), []uint64{10, 20, 30})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, stub.calls)
}
