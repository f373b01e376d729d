package storage

import (
	"context"
	"errors"

	"veribuy/models"
)

// ErrKeyNotFound is returned by KeyValue.Get for a key that was never written.
var ErrKeyNotFound = errors.New("storage: key not found")

// KeyValue is the durable string store the scan collections are kept in.
// Every backend must satisfy it.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// RecordExporter writes scan records out in a tabular format.
type RecordExporter interface {
	Export(records []models.ScanRecord) error
	Close() error
}
