package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/retry"
)

const (
	DefaultBaseURL = "https://api.etherscan.io/api"
	// DefaultFallbackAddress is the Uniswap-V3 USDC/WETH pool. Its ABI is served for unverified contracts.
	DefaultFallbackAddress = "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8"

	notVerifiedResult = "Contract source code not verified"
)

// ErrAbiUnavailable is returned when no usable ABI could be obtained, fallback included.
var ErrAbiUnavailable = errors.New("abi unavailable")

var errNotVerified = errors.New("contract source code not verified")

// Config controls the block-explorer client.
type Config struct {
	BaseURL         string
	APIKey          string
	FallbackAddress string
	FallbackDelay   time.Duration
	DisableFallback bool
	Timeout         time.Duration
	CacheSize       int
}

// DefaultConfig returns the explorer settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		FallbackAddress: DefaultFallbackAddress,
		FallbackDelay:   10 * time.Second,
		Timeout:         30 * time.Second,
		CacheSize:       128,
	}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Resolver fetches contract ABIs from an Etherscan-compatible getabi endpoint.
type Resolver struct {
	cfg        Config
	httpClient *http.Client
	cache      *lru.Cache[common.Address, string]
	logger     *zap.Logger
}

// NewResolver builds a resolver. A nil httpClient gets one with cfg.Timeout.
func NewResolver(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Resolver, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FallbackAddress == "" {
		cfg.FallbackAddress = DefaultFallbackAddress
	}
	if !cfg.DisableFallback && !common.IsHexAddress(cfg.FallbackAddress) {
		return nil, fmt.Errorf("invalid fallback address: %s", cfg.FallbackAddress)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[common.Address, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create abi cache: %w", err)
	}

	return &Resolver{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		logger:     logger,
	}, nil
}

// Resolve returns the ABI JSON of address.
//
// When the explorer reports the contract as unverified, the resolver waits
// FallbackDelay and returns the ABI of FallbackAddress instead. The caller then
// holds the interface of a different contract; this substitution is logged at Warn.
func (r *Resolver) Resolve(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: invalid address %q", ErrAbiUnavailable, address)
	}
	key := common.HexToAddress(address)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	abiJSON, err := r.fetch(ctx, key.Hex())
	if errors.Is(err, errNotVerified) {
		if r.cfg.DisableFallback {
			return "", fmt.Errorf("%w: %s: %w", ErrAbiUnavailable, key.Hex(), err)
		}
		r.logger.Warn("contract not verified, substituting fallback abi",
			zap.String("address", key.Hex()),
			zap.String("fallback", r.cfg.FallbackAddress),
			zap.Duration("delay", r.cfg.FallbackDelay),
		)
		if err := retry.Sleep(ctx, r.cfg.FallbackDelay); err != nil {
			return "", err
		}
		abiJSON, err = r.fetch(ctx, r.cfg.FallbackAddress)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: %w", ErrAbiUnavailable, key.Hex(), err)
	}

	if _, err := abi.JSON(strings.NewReader(abiJSON)); err != nil {
		return "", fmt.Errorf("%w: %s: parse abi: %w", ErrAbiUnavailable, key.Hex(), err)
	}

	r.cache.Add(key, abiJSON)
	return abiJSON, nil
}

// ResolveContract resolves the ABI and binds it to address.
func (r *Resolver) ResolveContract(ctx context.Context, address string) (contract.Ref, error) {
	abiJSON, err := r.Resolve(ctx, address)
	if err != nil {
		return contract.Ref{}, err
	}
	return contract.NewRef(address, abiJSON)
}

func (r *Resolver) fetch(ctx context.Context, address string) (string, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", address)
	if r.cfg.APIKey != "" {
		params.Set("apikey", r.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read explorer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("explorer status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode explorer response: %w", err)
	}
	if payload.Result == notVerifiedResult {
		return "", errNotVerified
	}
	if payload.Status == "0" {
		return "", fmt.Errorf("explorer error: %s: %s", payload.Message, payload.Result)
	}
	return payload.Result, nil
}
