// Package core is an in-memory storage for the query engine: a document
// manager holding one table per entity and a key-value bucket, both with
// time to live support.
package core

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

// DefaultKeyField field holding the row key when none is configured
const DefaultKeyField = "id"

type settings struct {
	keyField string
	now      func() time.Time
	newKey   func() string
}

// Option configures a Manager or a Bucket
type Option func(*settings)

// WithKeyField sets the field used as row key
func WithKeyField(field string) Option {
	return func(s *settings) {
		s.keyField = field
	}
}

// WithClock sets the clock used for time to live
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithKeyGenerator sets the generator of keys for rows inserted without one
func WithKeyGenerator(newKey func() string) Option {
	return func(s *settings) {
		s.newKey = newKey
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		keyField: DefaultKeyField,
		now:      time.Now,
		newKey:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Manager in-memory query.DocumentManager, safe for concurrent use
type Manager struct {
	mu       sync.Mutex
	tables   map[string]*Table
	settings settings
}

// NewManager creates an empty manager
func NewManager(opts ...Option) *Manager {
	return &Manager{
		tables:   map[string]*Table{},
		settings: newSettings(opts),
	}
}

// Table returns the table of an entity, creating it when missing
func (m *Manager) Table(entity string) *Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.table(entity)
}

func (m *Manager) table(entity string) *Table {
	t, ok := m.tables[entity]
	if !ok {
		t = NewTable(entity, m.settings.keyField)
		m.tables[entity] = t
	}

	return t
}

// Select returns the matching rows sorted, paged and projected
func (m *Manager) Select(ctx context.Context, q *query.Select) ([]types.Value, error) {
	rows, err := m.matching(ctx, q.Entity, q.Where)
	if err != nil {
		return nil, err
	}

	return query.Shape(rows, q), nil
}

// Count returns the number of matching rows, skip and limit are ignored
func (m *Manager) Count(ctx context.Context, q *query.Select) (int64, error) {
	rows, err := m.matching(ctx, q.Entity, q.Where)
	if err != nil {
		return 0, err
	}

	return int64(len(rows)), nil
}

func (m *Manager) matching(ctx context.Context, entity string, where *condition.Condition) ([]types.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	match, err := newMatcher(where)
	if err != nil {
		return nil, err
	}

	rows := []types.Value{}

	err = m.table(entity).scan(m.settings.now(), func(_ string, row types.Value) error {
		ok, err := match.match(row)
		if ok {
			rows = append(rows, row)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Insert stores the row, generating the key when it is missing. Inserting an
// existing key replaces the row.
func (m *Manager) Insert(ctx context.Context, q *query.Insert) (types.Value, error) {
	if err := ctx.Err(); err != nil {
		return types.Value{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(q.Entity)
	row := types.Map(q.Fields...)

	if _, ok := row.Get(t.KeyField); !ok {
		row = types.Map(slices.Concat([]types.Pair{{Key: t.KeyField, Value: types.String(m.settings.newKey())}}, q.Fields)...)
	}

	key, err := t.key(row)
	if err != nil {
		return types.Value{}, err
	}

	rec := record{row: row}
	if q.TTL > 0 {
		rec.expiresAt = m.settings.now().Add(q.TTL)
	}

	t.setItem(key, rec)

	return row, nil
}

// Update sets the fields on every matching row and returns the updated rows
func (m *Manager) Update(ctx context.Context, q *query.Update) ([]types.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(q.Entity)

	for _, f := range q.Fields {
		if f.Key == t.KeyField {
			return nil, types.NewInvalidArgumentError("the key field %q of %s cannot be updated", t.KeyField, t.Name)
		}
	}

	match, err := newMatcher(q.Where)
	if err != nil {
		return nil, err
	}

	updated := []types.Value{}

	err = t.scan(m.settings.now(), func(key string, row types.Value) error {
		ok, err := match.match(row)
		if err != nil || !ok {
			return err
		}

		for _, f := range q.Fields {
			row = row.With(f.Key, f.Value)
		}

		rec := t.Data[key]
		rec.row = row
		t.Data[key] = rec

		updated = append(updated, row)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the matching rows, or only the listed fields of them
func (m *Manager) Delete(ctx context.Context, q *query.Delete) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(q.Entity)

	if slices.Contains(q.Fields, t.KeyField) {
		return types.NewInvalidArgumentError("the key field %q of %s cannot be deleted", t.KeyField, t.Name)
	}

	if q.Where == nil && len(q.Fields) == 0 {
		t.Clear()

		return nil
	}

	match, err := newMatcher(q.Where)
	if err != nil {
		return err
	}

	removed := []string{}

	err = t.scan(m.settings.now(), func(key string, row types.Value) error {
		ok, err := match.match(row)
		if err != nil || !ok {
			return err
		}

		if len(q.Fields) == 0 {
			removed = append(removed, key)

			return nil
		}

		rec := t.Data[key]
		rec.row = row.Without(q.Fields...)
		t.Data[key] = rec

		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range removed {
		t.deleteItem(key)
	}

	return nil
}
