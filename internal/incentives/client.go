package incentives

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultSushiURL is prefixed to the pool address.
const DefaultSushiURL = "https://www.sushi.com/earn/api/pool/eth:"

type poolResponse struct {
	Pair struct {
		Farm struct {
			Incentives []struct {
				APR float64 `json:"apr"`
			} `json:"incentives"`
		} `json:"farm"`
	} `json:"pair"`
}

// Client reads the farm incentive APR of Sushiswap pools.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client. An empty baseURL disables lookups.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// APR returns the first farm incentive APR of pool. Only SUSHI pools carry one;
// any failure yields 0 and is logged at Warn.
func (c *Client) APR(ctx context.Context, exchange, pool string) float64 {
	if c == nil || c.baseURL == "" || !strings.EqualFold(exchange, "SUSHI") {
		return 0
	}
	apr, err := c.fetch(ctx, strings.ToLower(pool))
	if err != nil {
		c.logger.Warn("incentive apr unavailable", zap.String("pool", pool), zap.Error(err))
		return 0
	}
	return apr
}

func (c *Client) fetch(ctx context.Context, pool string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pool, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}
	var payload poolResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Pair.Farm.Incentives) == 0 {
		return 0, fmt.Errorf("pool has no farm incentives")
	}
	return payload.Pair.Farm.Incentives[0].APR, nil
}
