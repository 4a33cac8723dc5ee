package explorer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"lpAnalytics/internal/contract"
)

// StaticResolver binds every address to one fixed ABI.
type StaticResolver struct {
	abiJSON string
}

// NewStaticResolver validates abiJSON once so every ResolveContract call can bind it.
func NewStaticResolver(abiJSON string) (*StaticResolver, error) {
	if _, err := abi.JSON(strings.NewReader(abiJSON)); err != nil {
		return nil, fmt.Errorf("%w: parse abi: %w", ErrAbiUnavailable, err)
	}
	return &StaticResolver{abiJSON: abiJSON}, nil
}

// NewFileResolver reads the ABI JSON from path.
func NewFileResolver(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi file: %w", err)
	}
	return NewStaticResolver(string(data))
}

func (s *StaticResolver) ResolveContract(_ context.Context, address string) (contract.Ref, error) {
	return contract.NewRef(address, s.abiJSON)
}
