package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// EventRecord is one decoded log entry as returned by the provider.
// Hash and address fields keep their structured types until normalization.
type EventRecord struct {
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint
	LogIndex    uint
	Address     common.Address
	EventName   string
	// Args maps event input names to decoded values (*big.Int, common.Address, ...).
	Args map[string]interface{}
	// ArgNames preserves the ABI declaration order of Args.
	ArgNames []string
}
