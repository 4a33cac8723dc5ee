package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lpAnalytics/internal/normalize"
)

// JsonlStorage writes event rows to a JSONL file, one object per row.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEventBatch appends the rows of table as JSON lines. Values are rendered with normalize.FormatValue
// so large integers keep their precision.
func (s *JsonlStorage) PutEventBatch(table normalize.Table) error {
	if table.Len() == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, row := range table.Rows {
		object := make(map[string]string, len(table.Columns))
		for _, col := range table.Columns {
			if value, ok := row[col]; ok {
				object[col] = normalize.FormatValue(value)
			}
		}
		line, err := json.Marshal(object)
		if err != nil {
			return fmt.Errorf("marshal event row: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
