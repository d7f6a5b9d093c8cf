package core

import (
	"context"
	"sync"
	"time"

	"github.com/truora/miniql/types"
)

type entry struct {
	value     types.Value
	expiresAt time.Time
}

// Bucket in-memory query.KeyValueManager, safe for concurrent use. Keys are
// compared by their canonical form, so 10 and 10.0 address the same entry.
type Bucket struct {
	mu       sync.Mutex
	entries  map[string]entry
	settings settings
}

// NewBucket creates an empty bucket
func NewBucket(opts ...Option) *Bucket {
	return &Bucket{
		entries:  map[string]entry{},
		settings: newSettings(opts),
	}
}

// Get returns the live value of key
func (b *Bucket) Get(ctx context.Context, key types.Value) (types.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Value{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	k := key.Key()

	e, ok := b.entries[k]
	if !ok {
		return types.Value{}, false, nil
	}

	if !e.expiresAt.IsZero() && !b.settings.now().Before(e.expiresAt) {
		delete(b.entries, k)

		return types.Value{}, false, nil
	}

	return e.value, true, nil
}

// Put stores value under key, a zero ttl never expires
func (b *Bucket) Put(ctx context.Context, key, value types.Value, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = b.settings.now().Add(ttl)
	}

	b.entries[key.Key()] = e

	return nil
}

// Delete removes every key, missing keys are ignored
func (b *Bucket) Delete(ctx context.Context, keys []types.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		delete(b.entries, key.Key())
	}

	return nil
}

// Len returns the number of stored entries, expired ones included
func (b *Bucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}
