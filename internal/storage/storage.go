package storage

import "lpAnalytics/internal/normalize"

// Storage defines a sink for normalized event batches.
type Storage interface {
	PutEventBatch(table normalize.Table) error
}
