package normalize

import (
	"fmt"
	"math/big"
	"sort"

	"lpAnalytics/internal/contract"
	"lpAnalytics/internal/model"
)

// Base columns, present on every row. The string-typed ones are rendered with their canonical hex form.
const (
	ColAddress          = "address"
	ColBlockHash        = "block_hash"
	ColBlockNumber      = "block_number"
	ColEventName        = "event_name"
	ColLogIndex         = "log_index"
	ColTransactionHash  = "transaction_hash"
	ColTransactionIndex = "transaction_index"
)

var baseColumns = []string{
	ColAddress,
	ColBlockHash,
	ColBlockNumber,
	ColEventName,
	ColLogIndex,
	ColTransactionHash,
	ColTransactionIndex,
}

// Row is one flattened event record keyed by column name.
type Row map[string]interface{}

// Table is a flat, column-ordered view of event records.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Normalize promotes every decoded argument to a top-level column. Argument names that
// clash with a base column are prefixed with "arg_". Row order follows the input.
func Normalize(records []model.EventRecord) Table {
	if len(records) == 0 {
		return Table{}
	}

	columns := append([]string(nil), baseColumns...)
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		seen[col] = struct{}{}
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := Row{
			ColAddress:          record.Address.Hex(),
			ColBlockHash:        record.BlockHash.Hex(),
			ColBlockNumber:      record.BlockNumber,
			ColEventName:        record.EventName,
			ColLogIndex:         uint64(record.LogIndex),
			ColTransactionHash:  record.TxHash.Hex(),
			ColTransactionIndex: uint64(record.TxIndex),
		}
		for _, name := range argOrder(record) {
			col := name
			if isBaseColumn(col) {
				col = "arg_" + name
			}
			row[col] = record.Args[name]
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}

func argOrder(record model.EventRecord) []string {
	if len(record.ArgNames) > 0 {
		return record.ArgNames
	}
	names := make([]string, 0, len(record.Args))
	for name := range record.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isBaseColumn(name string) bool {
	for _, col := range baseColumns {
		if col == name {
			return true
		}
	}
	return false
}

// Uint64 reads an unsigned integer column.
func (r Row) Uint64(col string) (uint64, error) {
	value, ok := r[col]
	if !ok {
		return 0, fmt.Errorf("column %s missing", col)
	}
	n, err := contract.AsBigInt(value)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("column %s: %s does not fit in uint64", col, n)
	}
	return n.Uint64(), nil
}

// BigInt reads an integer column as a fresh *big.Int.
func (r Row) BigInt(col string) (*big.Int, error) {
	value, ok := r[col]
	if !ok {
		return nil, fmt.Errorf("column %s missing", col)
	}
	n, err := contract.AsBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return n, nil
}

// String reads a string column.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}
