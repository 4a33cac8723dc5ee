package model

import "math/big"

// SupplySnapshot is a contract value read at a historical block.
// A zero Value may mean the state was unavailable, not that it was zero on chain.
type SupplySnapshot struct {
	BlockNumber uint64   `json:"block_number"`
	Value       *big.Int `json:"value"`
}
