package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC for archive-node queries.
// It is the single provider instance handed to every component that needs chain access.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient dials the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return FromRPC(rpcClient), nil
}

// FromRPC wraps an established RPC connection. Close closes it.
func FromRPC(rpcClient *rpc.Client) *Client {
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the chain head block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	number, err := c.ethClient.BlockNumber(ctx)
	observe("eth_blockNumber", start, err)
	return number, err
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	start := time.Now()
	header, err := c.ethClient.HeaderByNumber(ctx, number)
	observe("eth_getBlockByNumber", start, err)
	return header, err
}

// BlockTimestamp returns the block timestamp. Timestamps are cached for the life of the client;
// the block-date builder reads the same blocks repeatedly during its binary searches.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}

	start := time.Now()
	logs, err := c.ethClient.FilterLogs(ctx, query)
	observe("eth_getLogs", start, err)
	return logs, err
}

// CallContract performs an eth_call pinned to blockNumber (nil means latest).
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	start := time.Now()
	out, err := c.ethClient.CallContract(ctx, msg, blockNumber)
	observe("eth_call", start, err)
	return out, err
}

func observe(method string, start time.Time, err error) {
	RPCMethodInc(method)
	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, Classify(err).String())
	}
}
