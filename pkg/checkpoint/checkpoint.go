// Package checkpoint persists the progress of a reconciliation run so that an
// interrupted run resumes where it stopped.
//
// A Checkpoint holds the row offset of the next unprocessed batch and every
// row computed before it. Stores replace the whole document atomically: a
// crash during Save leaves the previous checkpoint readable.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/errors"
)

// Checkpoint is the persisted progress of a run.
type Checkpoint struct {
	// LastBatchIndex is the catalog offset where the next batch starts.
	LastBatchIndex int            `json:"last_batch_index"`
	Results        []catalogs.Row `json:"results"`

	RunID         uuid.UUID `json:"run_id"`
	CatalogDigest string    `json:"catalog_digest,omitempty"`
	CatalogSize   int       `json:"catalog_size,omitempty"`
	BatchSize     int       `json:"batch_size,omitempty"`
	UpdatedAt     utc.Time  `json:"updated_at"`
}

// Store loads, saves, and deletes the checkpoint of a run.
type Store interface {
	// Load returns the stored checkpoint, or nil when none exists.
	Load(ctx context.Context) (*Checkpoint, error)
	// Save atomically replaces the stored checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error
	// Delete removes the stored checkpoint. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}

// Validate checks that the checkpoint was written for items: the digest and
// size must match when recorded, and every stored row must belong to the
// catalog item at the same position.
func (cp *Checkpoint) Validate(items []catalogs.Item) error {
	size := len(items)
	if cp.LastBatchIndex < 0 {
		return errors.NewPreconditionError("checkpoint",
			fmt.Sprintf("negative batch index %d", cp.LastBatchIndex), nil)
	}
	if cp.CatalogDigest != "" && cp.CatalogDigest != catalogs.Digest(items) {
		return errors.NewPreconditionError("checkpoint",
			"checkpoint was written for a different catalog", nil)
	}
	if cp.CatalogSize != 0 && cp.CatalogSize != size {
		return errors.NewPreconditionError("checkpoint",
			fmt.Sprintf("checkpoint covers %d catalog rows, catalog has %d", cp.CatalogSize, size), nil)
	}
	if want := min(cp.LastBatchIndex, size); len(cp.Results) != want {
		return errors.NewPreconditionError("checkpoint",
			fmt.Sprintf("checkpoint at offset %d holds %d rows, expected %d", cp.LastBatchIndex, len(cp.Results), want), nil)
	}
	for i, row := range cp.Results {
		if row.Key() != items[i].Key() {
			return errors.NewPreconditionError("checkpoint",
				fmt.Sprintf("row %d is %s, catalog has %s", i, row.Key(), items[i].Key()), nil)
		}
	}
	return nil
}

// Clone returns a deep copy of the checkpoint.
func (cp *Checkpoint) Clone() *Checkpoint {
	if cp == nil {
		return nil
	}
	out := *cp
	out.Results = append([]catalogs.Row(nil), cp.Results...)
	return &out
}
