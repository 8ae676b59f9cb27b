/*
store.go - Persistence interface for processed course runs

PURPOSE:
  The engine is a pure transform over an in-memory slice; persistence is
  an outer concern. Store keeps one row per course run keyed by UniqueID
  so a re-imported feed replaces rows instead of duplicating them.

UPSERT CONTRACT:
  Upsert() writes every record in one transaction. A record whose
  UniqueID already exists replaces the stored row.

ROUND TRIP:
  List() must return records equal to what was written, including the
  RevenueAdjusted flag, so a reloaded record is never adjusted twice.
  Amounts compare equal by value; their decimal exponent may differ.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - course/store/memory.go: In-memory for tests
*/
package course

import (
	"context"
	"time"
)

// Import records one feed upload.
type Import struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	RecordCount    int       `json:"recordCount"`
	SkippedRows    int       `json:"skippedRows"`
	UnknownColumns []string  `json:"unknownColumns"`
	ImportedAt     time.Time `json:"importedAt"`
}

// Store persists processed course runs.
type Store interface {
	// Upsert inserts or replaces records by UniqueID, atomically.
	Upsert(ctx context.Context, records []ProcessedRecord) error

	// Get returns one record or generic.ErrRecordNotFound.
	Get(ctx context.Context, uniqueID string) (ProcessedRecord, error)

	// List returns all records ordered by Row, then UniqueID.
	List(ctx context.Context) ([]ProcessedRecord, error)

	// Delete removes one record or returns generic.ErrRecordNotFound.
	Delete(ctx context.Context, uniqueID string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Reset removes every record and the import log.
	Reset(ctx context.Context) error

	// RecordImport appends to the import log.
	RecordImport(ctx context.Context, imp Import) error

	// ListImports returns the import log, newest first.
	ListImports(ctx context.Context) ([]Import, error)
}
