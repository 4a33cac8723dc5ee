package model

// PoolInfo describes a constant-product pair and its tokens.
type PoolInfo struct {
	Address        string `json:"address"`
	Exchange       string `json:"exchange"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Token0Decimals uint8  `json:"token0_decimals"`
	Token1Decimals uint8  `json:"token1_decimals"`
}

// Pair returns the "TOKEN0_TOKEN1" label.
func (p PoolInfo) Pair() string {
	return p.Token0 + "_" + p.Token1
}

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
