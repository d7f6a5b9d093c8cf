// Package sqlite is a key-value bucket stored in a SQLite database, built on
// the cgo free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/truora/miniql/types"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// Option configures a Bucket
type Option func(*Bucket)

// WithClock sets the clock used for time to live
func WithClock(now func() time.Time) Option {
	return func(b *Bucket) {
		b.now = now
	}
}

// Bucket query.KeyValueManager persisting entries in one table. Values keep
// their tagged JSON form and expiry is an epoch in seconds, 0 meaning never.
type Bucket struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path, ":memory:" keeps it in memory
func Open(path string, opts ...Option) (*Bucket, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection keeps a :memory: database alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	b := &Bucket{db: db, now: time.Now}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Close closes the database
func (b *Bucket) Close() error {
	return b.db.Close()
}

// Get reads the live value of key
func (b *Bucket) Get(ctx context.Context, key types.Value) (types.Value, bool, error) {
	var data string

	err := b.db.QueryRowContext(ctx,
		"SELECT value FROM entries WHERE key = ? AND (expires_at = 0 OR expires_at > ?)",
		key.Key(), b.now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Value{}, false, nil
	}

	if err != nil {
		return types.Value{}, false, err
	}

	var v types.Value
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return types.Value{}, false, fmt.Errorf("decoding value of %q: %w", key.Key(), err)
	}

	return v, true, nil
}

// Put stores value under key, a zero ttl never expires
func (b *Bucket) Put(ctx context.Context, key, value types.Value, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = b.now().Add(ttl).Unix()
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key.Key(), string(data), expiresAt,
	)

	return err
}

// Delete removes every key in one transaction, missing keys are ignored
func (b *Bucket) Delete(ctx context.Context, keys []types.Value) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM entries WHERE key = ?")
	if err != nil {
		return err
	}

	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key.Key()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Purge removes the expired entries and returns how many were removed
func (b *Bucket) Purge(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM entries WHERE expires_at <> 0 AND expires_at <= ?", b.now().Unix())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
