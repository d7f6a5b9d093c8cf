package query

import (
	"context"
	"time"

	"github.com/truora/miniql/types"
)

// DocumentManager is the storage collaborator for document and column
// statements. Rows are map values. Errors are returned untouched to the caller.
type DocumentManager interface {
	Select(ctx context.Context, q *Select) ([]types.Value, error)
	Count(ctx context.Context, q *Select) (int64, error)
	// Insert returns the stored row, including generated keys
	Insert(ctx context.Context, q *Insert) (types.Value, error)
	// Update returns the updated rows
	Update(ctx context.Context, q *Update) ([]types.Value, error)
	Delete(ctx context.Context, q *Delete) error
}

// KeyValueManager is the storage collaborator for key-value statements
type KeyValueManager interface {
	// Get returns false when the key does not exist or has expired
	Get(ctx context.Context, key types.Value) (types.Value, bool, error)
	// Put stores the entry, a zero ttl means it never expires
	Put(ctx context.Context, key, value types.Value, ttl time.Duration) error
	// Delete removes every key in one call
	Delete(ctx context.Context, keys []types.Value) error
}
