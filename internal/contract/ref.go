package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Ref binds a contract address to its decoded interface. Treat it as immutable once built.
type Ref struct {
	Address common.Address
	ABI     abi.ABI
}

// NewRef validates the address and parses the ABI JSON.
func NewRef(address string, abiJSON string) (Ref, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return Ref{}, fmt.Errorf("invalid contract address: %s", address)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return Ref{}, fmt.Errorf("parse abi for %s: %w", address, err)
	}
	return Ref{Address: common.HexToAddress(address), ABI: parsed}, nil
}

// Checksum returns the EIP-55 form of the address.
func (r Ref) Checksum() string {
	return r.Address.Hex()
}

// Event looks up an event by name.
func (r Ref) Event(name string) (abi.Event, error) {
	event, ok := r.ABI.Events[name]
	if !ok {
		return abi.Event{}, fmt.Errorf("event %s not found in abi of %s", name, r.Checksum())
	}
	return event, nil
}
