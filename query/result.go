package query

import (
	"iter"
	"sync/atomic"

	"github.com/truora/miniql/types"
)

// Result is the outcome of a dispatched statement. Eager results can be read
// many times; lazy ones, like GET, only once.
type Result struct {
	seq  iter.Seq2[types.Value, error]
	lazy bool
	used atomic.Bool
}

// NewResult wraps rows already fetched
func NewResult(rows []types.Value) *Result {
	return &Result{seq: func(yield func(types.Value, error) bool) {
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}}
}

// NewLazyResult wraps a sequence that hits the storage while it is iterated.
// A second iteration yields a QueryError instead of repeating the calls.
func NewLazyResult(seq iter.Seq2[types.Value, error]) *Result {
	return &Result{seq: seq, lazy: true}
}

// Empty is the result of statements without payload
func Empty() *Result {
	return NewResult(nil)
}

// Stream returns the rows as a sequence, stopping at the first error
func (r *Result) Stream() iter.Seq2[types.Value, error] {
	return func(yield func(types.Value, error) bool) {
		if r.lazy && !r.used.CompareAndSwap(false, true) {
			yield(types.Value{}, types.NewQueryError("the result was already consumed, run the statement again"))

			return
		}

		for row, err := range r.seq {
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// All collects every row
func (r *Result) All() ([]types.Value, error) {
	rows := []types.Value{}

	for row, err := range r.Stream() {
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// Single returns the only row, false when there is none. More than one row
// is a NonUniqueResult error.
func (r *Result) Single() (types.Value, bool, error) {
	rows, err := r.All()
	if err != nil {
		return types.Value{}, false, err
	}

	switch len(rows) {
	case 0:
		return types.Value{}, false, nil
	case 1:
		return rows[0], true, nil
	}

	return types.Value{}, false, types.NewNonUniqueResultError(len(rows))
}
