package subgraph

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lpAnalytics/internal/model"
)

// The two exchanges expose the same daily entity under different field names.
const uniHistoryQuery = `query($pairAddress: Bytes!, $date: Int!) {
  pairDayDatas(
    subgraphError: allow
    orderBy: date
    orderDirection: desc
    where: {pairAddress: $pairAddress, date_gte: $date}
    first: 800
  ) {
    date
    totalSupply
    reserveUSD
    reserve0
    reserve1
    dailyVolumeToken0
    dailyVolumeToken1
    token0 { symbol decimals derivedETH }
    token1 { symbol decimals derivedETH }
  }
}`

const sushiHistoryQuery = `query($pairAddress: String!, $date: Int!) {
  pairDayDatas(
    subgraphError: allow
    orderBy: date
    orderDirection: desc
    where: {pair: $pairAddress, date_gte: $date}
    first: 800
  ) {
    date
    totalSupply
    reserveUSD
    reserve0
    reserve1
    volumeToken0
    volumeToken1
    token0 { symbol decimals derivedETH }
    token1 { symbol decimals derivedETH }
  }
}`

type historyDay struct {
	Date              int64  `json:"date"`
	TotalSupply       string `json:"totalSupply"`
	ReserveUSD        string `json:"reserveUSD"`
	Reserve0          string `json:"reserve0"`
	Reserve1          string `json:"reserve1"`
	DailyVolumeToken0 string `json:"dailyVolumeToken0"`
	DailyVolumeToken1 string `json:"dailyVolumeToken1"`
	VolumeToken0      string `json:"volumeToken0"`
	VolumeToken1      string `json:"volumeToken1"`
	Token0            token  `json:"token0"`
	Token1            token  `json:"token1"`
}

type historyResponse struct {
	PairDayDatas []historyDay `json:"pairDayDatas"`
}

// PoolHistory returns the daily history of pair since the given day timestamp, oldest first.
// exchange selects the query shape: "SUSHI" for Sushiswap, anything else for Uniswap-V2.
func (c *Client) PoolHistory(ctx context.Context, exchange, pair string, since int64) ([]model.PoolDay, error) {
	query := uniHistoryQuery
	sushi := strings.EqualFold(exchange, "SUSHI")
	if sushi {
		query = sushiHistoryQuery
	}
	variables := map[string]interface{}{
		"pairAddress": strings.ToLower(pair),
		"date":        since,
	}

	var resp historyResponse
	if err := c.Query(ctx, query, variables, &resp); err != nil {
		return nil, fmt.Errorf("pool history %s: %w", pair, err)
	}

	days := make([]model.PoolDay, 0, len(resp.PairDayDatas))
	for _, raw := range resp.PairDayDatas {
		vol0, vol1 := raw.DailyVolumeToken0, raw.DailyVolumeToken1
		if sushi {
			vol0, vol1 = raw.VolumeToken0, raw.VolumeToken1
		}
		day, err := convertDay(raw, vol0, vol1)
		if err != nil {
			return nil, fmt.Errorf("pool %s day %d: %w", pair, raw.Date, err)
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func convertDay(raw historyDay, vol0, vol1 string) (model.PoolDay, error) {
	day := model.PoolDay{
		Date:         raw.Date,
		Token0Symbol: raw.Token0.Symbol,
		Token1Symbol: raw.Token1.Symbol,
	}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"totalSupply", raw.TotalSupply, &day.TotalSupply},
		{"reserveUSD", raw.ReserveUSD, &day.ReserveUSD},
		{"reserve0", raw.Reserve0, &day.Reserve0},
		{"reserve1", raw.Reserve1, &day.Reserve1},
		{"volumeToken0", vol0, &day.Volume0},
		{"volumeToken1", vol1, &day.Volume1},
		{"token0.derivedETH", raw.Token0.DerivedETH, &day.Token0DerivedETH},
	}
	for _, f := range fields {
		value, err := parseDecimal(f.raw)
		if err != nil {
			return model.PoolDay{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = value
	}
	return day, nil
}

// parseDecimal reads a BigDecimal string. Missing values are zero.
func parseDecimal(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q", raw)
	}
	return value, nil
}
