// Package record persists one application record per CPF with partial-progress
// semantics: stage results are write-once, the error log is append-only.
package record

import (
	"context"

	"creditgate/internal/domain"
)

// Store is the persistence contract for application records.
//
// FindByID returns sentinel.ErrNotFound when no record exists for the CPF.
//
// Upsert inserts a new record built from the patch, or merges the patch into
// the existing record:
//   - Identity, Credit and Outcome are set only when not already present
//     (write-once; a later run never overwrites a cached stage result)
//   - a patch error appends one entry to the error log, never replaces it
//   - UpdatedAt is always refreshed
//
// There is no transactional guarantee between FindByID and Upsert; concurrent
// runs for the same CPF race in that window, bounded by the write-once merge.
type Store interface {
	FindByID(ctx context.Context, cpf string) (*domain.Record, error)
	Upsert(ctx context.Context, cpf string, patch domain.StagePatch) (*domain.Record, error)
}
