package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"lpAnalytics/internal/model"
)

var universeHeader = []string{"id", "token0.symbol", "token1.symbol", "token0.decimals", "token1.decimals", "exchange"}

// WriteUniverse writes the research universe, one pool per row.
func WriteUniverse(path string, pools []model.PoolInfo) error {
	records := make([][]string, 0, len(pools))
	for _, p := range pools {
		records = append(records, []string{
			p.Address,
			p.Token0,
			p.Token1,
			strconv.Itoa(int(p.Token0Decimals)),
			strconv.Itoa(int(p.Token1Decimals)),
			p.Exchange,
		})
	}
	return writeRecords(path, universeHeader, records)
}

// LoadUniverse reads a universe file written by WriteUniverse.
func LoadUniverse(path string) ([]model.PoolInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return ReadUniverse(f)
}

// ReadUniverse parses universe rows. Columns are located by header name; extra columns are ignored.
func ReadUniverse(r io.Reader) ([]model.PoolInfo, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range universeHeader {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("universe missing column %q", name)
		}
	}

	var pools []model.PoolInfo
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe line %d: %w", line, err)
		}
		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		dec0, err := parseDecimals(field("token0.decimals"))
		if err != nil {
			return nil, fmt.Errorf("universe line %d: token0.decimals: %w", line, err)
		}
		dec1, err := parseDecimals(field("token1.decimals"))
		if err != nil {
			return nil, fmt.Errorf("universe line %d: token1.decimals: %w", line, err)
		}
		pools = append(pools, model.PoolInfo{
			Address:        field("id"),
			Token0:         field("token0.symbol"),
			Token1:         field("token1.symbol"),
			Token0Decimals: dec0,
			Token1Decimals: dec1,
			Exchange:       field("exchange"),
		})
	}
	return pools, nil
}

// parseDecimals accepts integer or float notation ("18", "18.0").
func parseDecimals(value string) (uint8, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > 255 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid decimals %q", value)
	}
	return uint8(f), nil
}
