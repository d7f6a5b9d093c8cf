// Package query holds the backend agnostic statements produced by the
// interpreter, the parameter registry used to bind them and the dispatcher
// that runs them against a storage manager.
package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/types"
)

// Direction sort direction
type Direction string

const (
	// ASC ascending order
	ASC Direction = "ASC"
	// DESC descending order
	DESC Direction = "DESC"
)

// Sort one ordering entry, entries are applied in order
type Sort struct {
	Field     string
	Direction Direction
}

func (s Sort) String() string {
	return s.Field + " " + string(s.Direction)
}

// Statement is a realized or parameterized statement ready for dispatch
type Statement interface {
	// Operation returns the statement keyword, SELECT, INSERT, ...
	Operation() string
	// HasParams reports whether any value is still a parameter placeholder
	HasParams() bool
	// Replace rebuilds the statement substituting every parameter
	Replace(fn func(types.Value) (types.Value, error)) (Statement, error)
	String() string
}

// Select reads rows of an entity
type Select struct {
	Entity string
	Fields []string
	Where  *condition.Condition
	Sorts  []Sort
	Skip   int64
	Limit  int64
	Count  bool
}

// Insert stores one row, a zero TTL means it never expires
type Insert struct {
	Entity string
	Fields []types.Pair
	TTL    time.Duration
}

// Update sets fields on the rows matching Where, every row without a condition
type Update struct {
	Entity string
	Fields []types.Pair
	Where  *condition.Condition
}

// Delete removes the rows matching Where, or only the listed fields of them
type Delete struct {
	Entity string
	Fields []string
	Where  *condition.Condition
}

// Get reads key-value entries, one lookup per key in order
type Get struct {
	Keys []types.Value
}

// Put stores one key-value entry
type Put struct {
	Key   types.Value
	Value types.Value
	TTL   time.Duration
}

// Del removes key-value entries in a single batch
type Del struct {
	Keys []types.Value
}

// Operation returns SELECT
func (s *Select) Operation() string { return "SELECT" }

// Operation returns INSERT
func (s *Insert) Operation() string { return "INSERT" }

// Operation returns UPDATE
func (s *Update) Operation() string { return "UPDATE" }

// Operation returns DELETE
func (s *Delete) Operation() string { return "DELETE" }

// Operation returns GET
func (s *Get) Operation() string { return "GET" }

// Operation returns PUT
func (s *Put) Operation() string { return "PUT" }

// Operation returns DEL
func (s *Del) Operation() string { return "DEL" }

// HasParams reports whether the condition holds parameters
func (s *Select) HasParams() bool { return whereHasParams(s.Where) }

// HasParams reports whether a field value holds parameters
func (s *Insert) HasParams() bool { return pairsHaveParams(s.Fields) }

// HasParams reports whether a field value or the condition holds parameters
func (s *Update) HasParams() bool { return pairsHaveParams(s.Fields) || whereHasParams(s.Where) }

// HasParams reports whether the condition holds parameters
func (s *Delete) HasParams() bool { return whereHasParams(s.Where) }

// HasParams reports whether a key holds parameters
func (s *Get) HasParams() bool { return valuesHaveParams(s.Keys) }

// HasParams reports whether the key or the value holds parameters
func (s *Put) HasParams() bool { return s.Key.HasParams() || s.Value.HasParams() }

// HasParams reports whether a key holds parameters
func (s *Del) HasParams() bool { return valuesHaveParams(s.Keys) }

// Replace returns a copy with every parameter replaced
func (s *Select) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	where, err := replaceWhere(s.Where, fn)
	if err != nil {
		return nil, err
	}

	out := *s
	out.Where = where

	return &out, nil
}

// Replace returns a copy with every parameter replaced
func (s *Insert) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	fields, err := replacePairs(s.Fields, fn)
	if err != nil {
		return nil, err
	}

	out := *s
	out.Fields = fields

	return &out, nil
}

// Replace returns a copy with every parameter replaced
func (s *Update) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	fields, err := replacePairs(s.Fields, fn)
	if err != nil {
		return nil, err
	}

	where, err := replaceWhere(s.Where, fn)
	if err != nil {
		return nil, err
	}

	return &Update{Entity: s.Entity, Fields: fields, Where: where}, nil
}

// Replace returns a copy with every parameter replaced
func (s *Delete) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	where, err := replaceWhere(s.Where, fn)
	if err != nil {
		return nil, err
	}

	out := *s
	out.Where = where

	return &out, nil
}

// Replace returns a copy with every parameter replaced
func (s *Get) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	keys, err := replaceValues(s.Keys, fn)
	if err != nil {
		return nil, err
	}

	return &Get{Keys: keys}, nil
}

// Replace returns a copy with every parameter replaced
func (s *Put) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	key, err := s.Key.Replace(fn)
	if err != nil {
		return nil, err
	}

	value, err := s.Value.Replace(fn)
	if err != nil {
		return nil, err
	}

	return &Put{Key: key, Value: value, TTL: s.TTL}, nil
}

// Replace returns a copy with every parameter replaced
func (s *Del) Replace(fn func(types.Value) (types.Value, error)) (Statement, error) {
	keys, err := replaceValues(s.Keys, fn)
	if err != nil {
		return nil, err
	}

	return &Del{Keys: keys}, nil
}

func (s *Select) String() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")

	switch {
	case s.Count:
		sb.WriteString("count(*)")
	case len(s.Fields) == 0:
		sb.WriteString("*")
	default:
		sb.WriteString(strings.Join(s.Fields, ", "))
	}

	sb.WriteString(" FROM " + s.Entity)
	writeWhere(&sb, s.Where)

	if len(s.Sorts) > 0 {
		sorts := make([]string, 0, len(s.Sorts))
		for _, sort := range s.Sorts {
			sorts = append(sorts, sort.String())
		}

		sb.WriteString(" ORDER BY " + strings.Join(sorts, ", "))
	}

	if s.Skip > 0 {
		sb.WriteString(" SKIP " + strconv.FormatInt(s.Skip, 10))
	}

	if s.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.FormatInt(s.Limit, 10))
	}

	return sb.String()
}

func (s *Insert) String() string {
	out := "INSERT " + s.Entity + " " + assignments(s.Fields)
	if s.TTL > 0 {
		out += " " + formatTTL(s.TTL)
	}

	return out
}

func (s *Update) String() string {
	var sb strings.Builder

	sb.WriteString("UPDATE " + s.Entity + " " + assignments(s.Fields))
	writeWhere(&sb, s.Where)

	return sb.String()
}

func (s *Delete) String() string {
	var sb strings.Builder

	sb.WriteString("DELETE ")

	if len(s.Fields) > 0 {
		sb.WriteString(strings.Join(s.Fields, ", ") + " ")
	}

	sb.WriteString("FROM " + s.Entity)
	writeWhere(&sb, s.Where)

	return sb.String()
}

func (s *Get) String() string {
	return "GET " + joinValues(s.Keys)
}

func (s *Put) String() string {
	out := "PUT {" + s.Key.String() + ", " + s.Value.String()
	if s.TTL > 0 {
		out += ", " + formatTTL(s.TTL)
	}

	return out + "}"
}

func (s *Del) String() string {
	return "DEL " + joinValues(s.Keys)
}

// formatTTL renders the duration with the largest unit dividing it
func formatTTL(d time.Duration) string {
	units := []struct {
		name string
		size time.Duration
	}{
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
	}

	for _, u := range units {
		if d%u.size == 0 {
			return strconv.FormatInt(int64(d/u.size), 10) + " " + u.name
		}
	}

	return strconv.FormatInt(int64(d/time.Second), 10) + " second"
}

func writeWhere(sb *strings.Builder, where *condition.Condition) {
	if where != nil {
		sb.WriteString(" WHERE " + where.String())
	}
}

func assignments(fields []types.Pair) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Key+" = "+f.Value.String())
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func joinValues(values []types.Value) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, v.String())
	}

	return strings.Join(parts, ", ")
}

func whereHasParams(where *condition.Condition) bool {
	return where != nil && where.HasParams()
}

func pairsHaveParams(pairs []types.Pair) bool {
	for _, p := range pairs {
		if p.Value.HasParams() {
			return true
		}
	}

	return false
}

func valuesHaveParams(values []types.Value) bool {
	for _, v := range values {
		if v.HasParams() {
			return true
		}
	}

	return false
}

func replaceWhere(where *condition.Condition, fn func(types.Value) (types.Value, error)) (*condition.Condition, error) {
	if where == nil {
		return nil, nil
	}

	replaced, err := where.Replace(fn)
	if err != nil {
		return nil, err
	}

	return &replaced, nil
}

func replacePairs(pairs []types.Pair, fn func(types.Value) (types.Value, error)) ([]types.Pair, error) {
	out := make([]types.Pair, 0, len(pairs))

	for _, p := range pairs {
		v, err := p.Value.Replace(fn)
		if err != nil {
			return nil, err
		}

		out = append(out, types.Pair{Key: p.Key, Value: v})
	}

	return out, nil
}

func replaceValues(values []types.Value, fn func(types.Value) (types.Value, error)) ([]types.Value, error) {
	out := make([]types.Value, 0, len(values))

	for _, v := range values {
		r, err := v.Replace(fn)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}
