package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lpAnalytics/internal/model"
)

const searchPoolsQuery = `query($reserve_min: BigDecimal!, $date: Int!) {
  pairDayDatas(
    orderBy: date
    orderDirection: desc
    subgraphError: allow
    where: {reserveUSD_gt: $reserve_min, date: $date}
    first: 1000
  ) {
    id
    date
    reserveUSD
    token0 { id name symbol decimals }
    token1 { id name symbol decimals }
  }
}`

type token struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Decimals   string `json:"decimals"`
	DerivedETH string `json:"derivedETH"`
}

type searchResponse struct {
	PairDayDatas []struct {
		ID         string `json:"id"`
		Date       int64  `json:"date"`
		ReserveUSD string `json:"reserveUSD"`
		Token0     token  `json:"token0"`
		Token1     token  `json:"token1"`
	} `json:"pairDayDatas"`
}

// SearchParams selects pools by TVL on a given day.
type SearchParams struct {
	MinReserveUSD float64
	// Date is the day timestamp (UTC midnight) of the snapshot to filter on.
	Date int64
	// Include keeps only pools with at least one token among these symbols. Empty keeps all.
	Include  []string
	Exchange string
}

// DayTimestamp returns the UTC midnight at or before t, the key of daily subgraph entities.
func DayTimestamp(t time.Time) int64 {
	return t.Unix() / 86400 * 86400
}

// SearchPools returns the pools whose reserve exceeded MinReserveUSD on Date.
func (c *Client) SearchPools(ctx context.Context, params SearchParams) ([]model.PoolInfo, error) {
	variables := map[string]interface{}{
		"reserve_min": strconv.FormatFloat(params.MinReserveUSD, 'f', -1, 64),
		"date":        params.Date,
	}

	var resp searchResponse
	if err := c.Query(ctx, searchPoolsQuery, variables, &resp); err != nil {
		return nil, fmt.Errorf("search pools: %w", err)
	}

	include := make(map[string]struct{}, len(params.Include))
	for _, symbol := range params.Include {
		include[strings.ToUpper(strings.TrimSpace(symbol))] = struct{}{}
	}

	pools := make([]model.PoolInfo, 0, len(resp.PairDayDatas))
	seen := make(map[string]struct{})
	for _, day := range resp.PairDayDatas {
		if len(include) > 0 && !hasSymbol(include, day.Token0.Symbol) && !hasSymbol(include, day.Token1.Symbol) {
			continue
		}
		address := PairAddress(day.ID)
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}

		dec0, err := parseDecimals(day.Token0.Decimals)
		if err != nil {
			return nil, fmt.Errorf("pool %s token0: %w", address, err)
		}
		dec1, err := parseDecimals(day.Token1.Decimals)
		if err != nil {
			return nil, fmt.Errorf("pool %s token1: %w", address, err)
		}
		pools = append(pools, model.PoolInfo{
			Address:        address,
			Exchange:       params.Exchange,
			Token0:         day.Token0.Symbol,
			Token1:         day.Token1.Symbol,
			Token0Decimals: dec0,
			Token1Decimals: dec1,
		})
	}
	return pools, nil
}

// PairAddress strips the "-<day>" suffix of a pairDayData id.
func PairAddress(id string) string {
	address, _, _ := strings.Cut(id, "-")
	return strings.ToLower(address)
}

func hasSymbol(set map[string]struct{}, symbol string) bool {
	_, ok := set[strings.ToUpper(symbol)]
	return ok
}

func parseDecimals(raw string) (uint8, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid decimals %q", raw)
	}
	return uint8(value), nil
}
