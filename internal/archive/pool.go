package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
)

// ResolvePool looks address up in the research universe. Pools missing from it are
// described from token0()/token1() and the ERC20 metadata of both tokens, read through tokens.
func ResolvePool(ctx context.Context, address string, universe []model.PoolInfo, caller contract.Caller, tokens *contract.TokenMetaCache, exchange string, logger *zap.Logger) (model.PoolInfo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	address = strings.ToLower(strings.TrimSpace(address))
	if !common.IsHexAddress(address) {
		return model.PoolInfo{}, fmt.Errorf("invalid pool address: %s", address)
	}

	for _, pool := range universe {
		if strings.HasPrefix(strings.ToLower(pool.Address), address) {
			return pool, nil
		}
	}

	logger.Info("pool not in universe, reading metadata on chain", zap.String("pool", address))
	pair := common.HexToAddress(address)
	token0, token1, err := contract.FetchPairTokens(ctx, caller, pair)
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("pair tokens of %s: %w", address, err)
	}
	meta0, err := tokens.Fetch(ctx, caller, token0, logger)
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("token0 metadata: %w", err)
	}
	meta1, err := tokens.Fetch(ctx, caller, token1, logger)
	if err != nil {
		return model.PoolInfo{}, fmt.Errorf("token1 metadata: %w", err)
	}

	return model.PoolInfo{
		Address:        address,
		Exchange:       exchange,
		Token0:         meta0.Symbol,
		Token1:         meta1.Symbol,
		Token0Decimals: meta0.Decimals,
		Token1Decimals: meta1.Decimals,
	}, nil
}
