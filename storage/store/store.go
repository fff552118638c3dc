package store

import "context"

// StoredRow is the persisted representation of one parsed log line.
// Timestamp stays a string so the original log token survives
// verbatim; ParsedData holds every extracted field plus the log type.
type StoredRow struct {
	LogType    string
	RawLine    string
	Timestamp  string
	SourceFile string
	ParsedData map[string]string
}

// Store defines the interface to the relational store.
type Store interface {
	// EnsureSchema creates the logs table if it does not exist.
	// Idempotent and safe to call concurrently from multiple
	// processes.
	EnsureSchema(ctx context.Context) error

	// InsertRow durably writes a single row.
	InsertRow(ctx context.Context, row *StoredRow) error

	// InsertRows durably writes every row of the batch. No partial
	// row is ever visible.
	InsertRows(ctx context.Context, rows []*StoredRow) error

	// CountRows reports the total number of stored rows.
	CountRows(ctx context.Context) (int64, error)

	// CountByType reports stored row counts grouped by log type.
	CountByType(ctx context.Context) (map[string]int64, error)

	// Close releases the underlying connections.
	Close()
}
