// Package repository keeps processed runs in memory so they can be read back
// by id. Nothing is written to disk.
package repository

import (
	"context"

	"github.com/okian/srim/internal/domain/model"
)

// Store provides read/write access to processed runs.
type Store interface {
	// Save stores run, evicting the oldest run when the store is full.
	Save(ctx context.Context, run model.Run) error

	// Get returns the run with the given id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (model.Run, error)

	// Latest returns the most recently saved run.
	// Returns ErrNotFound if the store is empty.
	Latest(ctx context.Context) (model.Run, error)

	// Count returns the number of runs held.
	Count(ctx context.Context) int
}
