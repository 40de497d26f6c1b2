package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/interview"
)

// StateStore persists interview contexts between updates. Snapshots are
// content-addressed: Put returns the key of the stored snapshot, and each
// update of a run produces a new key.
type StateStore interface {
	// Put stores a context and returns its key.
	Put(ctx context.Context, ic *interview.Context) (string, error)

	// Get retrieves a context by key.
	// Returns interview.ErrInterviewNotFound if the key is unknown or
	// the snapshot has expired.
	Get(ctx context.Context, key string) (*interview.Context, error)
}
