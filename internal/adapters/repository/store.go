// Package repository holds scored records in rank order.
package repository

import (
	"context"

	model "github.com/okian/eventrank/internal/domain/model"
)

// Entry is a ranked record.
type Entry struct {
	Rank   int
	Record model.Record
}

// Store provides read/write access to the ranked record set.
type Store interface {
	// Upsert inserts or replaces records by ID, assigning IDs to records
	// that have none. It returns the stored copies in input order.
	Upsert(ctx context.Context, records ...model.Record) ([]model.Record, error)

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Record, error)

	// Rank returns the ranked entry for id, or ErrNotFound.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the best n entries in rank order.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// All returns every record in rank order.
	All(ctx context.Context) []model.Record

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
