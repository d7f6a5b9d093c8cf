package query

import (
	"slices"
	"strings"

	"github.com/truora/miniql/types"
)

// Lookup resolves a possibly dotted field path inside a row
func Lookup(row types.Value, path string) (types.Value, bool) {
	current := row

	for _, part := range strings.Split(path, ".") {
		if current.Kind() != types.KindMap {
			return types.Value{}, false
		}

		next, ok := current.Get(part)
		if !ok {
			return types.Value{}, false
		}

		current = next
	}

	return current, true
}

// SortRows orders the rows in place by the sorts, in order. A missing field
// orders before any value and the sort is stable.
func SortRows(rows []types.Value, sorts []Sort) {
	if len(sorts) == 0 {
		return
	}

	slices.SortStableFunc(rows, func(a, b types.Value) int {
		for _, s := range sorts {
			cmp := compareField(a, b, s.Field)
			if s.Direction == DESC {
				cmp = -cmp
			}

			if cmp != 0 {
				return cmp
			}
		}

		return 0
	})
}

func compareField(a, b types.Value, field string) int {
	av, aok := Lookup(a, field)
	bv, bok := Lookup(b, field)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	cmp, ok := types.Compare(av, bv)
	if !ok {
		return strings.Compare(av.Key(), bv.Key())
	}

	return cmp
}

// Page applies skip and limit, a zero limit keeps every remaining row
func Page(rows []types.Value, skip, limit int64) []types.Value {
	if skip >= int64(len(rows)) {
		return []types.Value{}
	}

	rows = rows[skip:]

	if limit > 0 && limit < int64(len(rows)) {
		rows = rows[:limit]
	}

	return rows
}

// Project keeps the listed fields of the row, every field when none is listed
func Project(row types.Value, fields []string) types.Value {
	if len(fields) == 0 {
		return row
	}

	pairs := make([]types.Pair, 0, len(fields))

	for _, f := range fields {
		if v, ok := Lookup(row, f); ok {
			pairs = append(pairs, types.Pair{Key: f, Value: v})
		}
	}

	return types.Map(pairs...)
}

// Shape applies sorting, paging and projection of a select to fetched rows
func Shape(rows []types.Value, q *Select) []types.Value {
	SortRows(rows, q.Sorts)

	rows = Page(rows, q.Skip, q.Limit)

	out := make([]types.Value, 0, len(rows))
	for _, row := range rows {
		out = append(out, Project(row, q.Fields))
	}

	return out
}
