package core

import (
	"sort"
	"time"

	"github.com/truora/miniql/types"
)

type record struct {
	row       types.Value
	expiresAt time.Time
}

func (r record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

// Table rows of one entity, addressed by the canonical key of the key field
type Table struct {
	Name       string
	KeyField   string
	SortedKeys []string
	Data       map[string]record
}

// NewTable creates a new Table
func NewTable(name, keyField string) *Table {
	return &Table{
		Name:       name,
		KeyField:   keyField,
		SortedKeys: []string{},
		Data:       map[string]record{},
	}
}

func (t *Table) key(row types.Value) (string, error) {
	v, ok := row.Get(t.KeyField)
	if !ok {
		return "", types.NewInvalidArgumentError("row of %s has no %q key", t.Name, t.KeyField)
	}

	switch v.Kind() {
	case types.KindString, types.KindNumber, types.KindEnum:
		return v.Key(), nil
	}

	return "", types.NewInvalidArgumentError("key %q of %s must be a string or a number, got %s", t.KeyField, t.Name, v.Kind())
}

func (t *Table) setItem(key string, rec record) {
	_, exists := t.Data[key]
	t.Data[key] = rec

	if !exists {
		t.SortedKeys = append(t.SortedKeys, key)
		sort.Strings(t.SortedKeys)
	}
}

func (t *Table) deleteItem(key string) {
	if _, ok := t.Data[key]; !ok {
		return
	}

	delete(t.Data, key)

	pos := sort.SearchStrings(t.SortedKeys, key)
	if pos == len(t.SortedKeys) || t.SortedKeys[pos] != key {
		return
	}

	copy(t.SortedKeys[pos:], t.SortedKeys[pos+1:])
	t.SortedKeys[len(t.SortedKeys)-1] = ""
	t.SortedKeys = t.SortedKeys[:len(t.SortedKeys)-1]
}

// scan visits the live rows in key order, dropping the expired ones
func (t *Table) scan(now time.Time, fn func(key string, row types.Value) error) error {
	expired := []string{}

	for _, key := range t.SortedKeys {
		rec := t.Data[key]
		if rec.expired(now) {
			expired = append(expired, key)
			continue
		}

		if err := fn(key, rec.row); err != nil {
			return err
		}
	}

	for _, key := range expired {
		t.deleteItem(key)
	}

	return nil
}

// Len returns the number of stored rows, expired ones included until the next scan
func (t *Table) Len() int {
	return len(t.SortedKeys)
}

// Clear removes data and sorted keys from a table
func (t *Table) Clear() {
	t.SortedKeys = []string{}
	t.Data = map[string]record{}
}
