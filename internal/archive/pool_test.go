package archive

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/require"

	"lpAnalytics/internal/model"
)

type revertingCaller struct{}

func (revertingCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("execution reverted")
}

func TestResolvePoolFromUniverse(t *testing.T) {
	universe := []model.PoolInfo{
		{Address: "0xa478c2975ab1ea89e8196811f51a7b7ade33eb11", Exchange: ExchangeUni, Token0: "DAI", Token1: "WETH"},
		usdcWeth,
	}

	pool, err := ResolvePool(context.Background(), "0xB4E16D0168E52D35CACD2C6185B44281EC28C9DC", universe, revertingCaller{}, nil, ExchangeUni, nil)
	require.NoError(t, err)
	require.Equal(t, usdcWeth, pool)
}

func TestResolvePoolOnChainFailure(t *testing.T) {
	_, err := ResolvePool(context.Background(), "0x21b8065d10f73ee2e260e5b47d3344d3ced7596e", nil, revertingCaller{}, nil, ExchangeSushi, nil)
	require.Error(t, err)

	_, err = ResolvePool(context.Background(), "pool", nil, revertingCaller{}, nil, ExchangeSushi, nil)
	require.Error(t, err)
}
