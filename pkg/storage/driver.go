// Package storage persists the auxiliary index of ingested units.
//
// The index records which units exist for which source file. It is written
// after every successful ingest and read to list the files a query can
// target. Unit text and vectors live in the vector store, not here.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/medrag/pkg/unit"
)

// Record is the index entry for one ingested unit.
type Record struct {
	ID          string
	Source      string
	Type        unit.Modality
	ContentHash string
	StartOffset int

	// Length is the byte length of the unit text.
	Length int

	IngestedAt time.Time
}

// SourceSummary aggregates the records of one source file.
type SourceSummary struct {
	Source string        `json:"source"`
	Type   unit.Modality `json:"type"`
	Units  int           `json:"units"`
}

// Driver defines the interface for persisting and reading index records.
type Driver interface {
	// Put upserts records by ID and returns how many IDs were not present
	// before. Re-putting existing records updates them and counts zero.
	Put(ctx context.Context, records []Record) (int, error)

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id string) (*Record, error)

	// ListBySource returns the records of one source ordered by start offset
	// then ID.
	ListBySource(ctx context.Context, source string) ([]Record, error)

	// Sources summarizes every source, sorted by name.
	Sources(ctx context.Context) ([]SourceSummary, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}

// RecordFromUnit builds the index record for u.
func RecordFromUnit(u unit.Unit, ingestedAt time.Time) Record {
	return Record{
		ID:          u.ID,
		Source:      u.Metadata.Source,
		Type:        u.Metadata.Type,
		ContentHash: u.Metadata.ContentHash,
		StartOffset: u.Metadata.StartOffset,
		Length:      len(u.Text),
		IngestedAt:  ingestedAt,
	}
}
