package blockdate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day format used by the table.
const DateLayout = "2006-01-02"

// ErrNoMapping is returned for blocks that predate the table.
var ErrNoMapping = errors.New("no date mapping for block")

// Entry pairs a UTC day with the first block of that day.
type Entry struct {
	Date  string
	Block uint64
}

// Map is a read-only lookup table ordered by block.
type Map struct {
	entries []Entry
}

// New validates that blocks and dates are strictly increasing.
func New(entries []Entry) (*Map, error) {
	for i := 1; i < len(entries); i++ {
		if entries[i].Block <= entries[i-1].Block {
			return nil, fmt.Errorf("block column not strictly increasing at %s: %d after %d",
				entries[i].Date, entries[i].Block, entries[i-1].Block)
		}
		if entries[i].Date <= entries[i-1].Date {
			return nil, fmt.Errorf("dates not strictly increasing: %s after %s", entries[i].Date, entries[i-1].Date)
		}
	}
	return &Map{entries: append([]Entry(nil), entries...)}, nil
}

// DateOf returns the date of the greatest entry whose block is strictly below block.
func (m *Map) DateOf(block uint64) (string, error) {
	// first index with Block >= block
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Block >= block })
	if i == 0 {
		return "", fmt.Errorf("%w %d", ErrNoMapping, block)
	}
	return m.entries[i-1].Date, nil
}

// BlockOf returns the first block of date.
func (m *Map) BlockOf(date string) (uint64, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Date >= date })
	if i < len(m.entries) && m.entries[i].Date == date {
		return m.entries[i].Block, true
	}
	return 0, false
}

func (m *Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Parse reads a tab-separated table with a header. The first column holds the date,
// the column named "Block" the block number.
func Parse(r io.Reader) (*Map, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	blockCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "Block" {
			blockCol = i
			break
		}
	}
	if blockCol <= 0 {
		return nil, fmt.Errorf("block column not found after the date column")
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(record) <= blockCol {
			return nil, fmt.Errorf("line %d: expected at least %d columns", line, blockCol+1)
		}
		date, err := normalizeDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		block, err := parseBlock(record[blockCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, Entry{Date: date, Block: block})
	}

	return New(entries)
}

// Load parses the table at path.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block date table: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Write renders entries in the format Parse reads.
func Write(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	if err := writer.Write([]string{"Date", "Block"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{entry.Date, strconv.FormatUint(entry.Block, 10)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", raw)
}

// parseBlock accepts integers, also written as floats ("1234.0").
func parseBlock(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if value, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return value, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("invalid block %q", raw)
	}
	return uint64(f), nil
}
