package query

import (
	"context"

	"github.com/truora/miniql/types"
)

// Execute runs a realized document statement against the manager
func Execute(ctx context.Context, stmt Statement, m DocumentManager) (*Result, error) {
	if stmt.HasParams() {
		return nil, types.NewParamWithoutPreparedError()
	}

	switch q := stmt.(type) {
	case *Select:
		if q.Count {
			n, err := m.Count(ctx, q)
			if err != nil {
				return nil, err
			}

			return NewResult([]types.Value{types.Int(n)}), nil
		}

		rows, err := m.Select(ctx, q)
		if err != nil {
			return nil, err
		}

		return NewResult(rows), nil
	case *Insert:
		row, err := m.Insert(ctx, q)
		if err != nil {
			return nil, err
		}

		return NewResult([]types.Value{row}), nil
	case *Update:
		rows, err := m.Update(ctx, q)
		if err != nil {
			return nil, err
		}

		return NewResult(rows), nil
	case *Delete:
		if err := m.Delete(ctx, q); err != nil {
			return nil, err
		}

		return Empty(), nil
	}

	return nil, types.NewQueryError("%s is not a document statement", stmt.Operation())
}

// ExecuteKeyValue runs a realized key-value statement against the manager.
// GET is lazy: each key is looked up while the result is iterated and
// missing keys are skipped.
func ExecuteKeyValue(ctx context.Context, stmt Statement, m KeyValueManager) (*Result, error) {
	if stmt.HasParams() {
		return nil, types.NewParamWithoutPreparedError()
	}

	switch q := stmt.(type) {
	case *Get:
		keys := append([]types.Value{}, q.Keys...)

		return NewLazyResult(func(yield func(types.Value, error) bool) {
			for _, key := range keys {
				value, found, err := m.Get(ctx, key)
				if err != nil {
					yield(types.Value{}, err)

					return
				}

				if found && !yield(value, nil) {
					return
				}
			}
		}), nil
	case *Put:
		if err := m.Put(ctx, q.Key, q.Value, q.TTL); err != nil {
			return nil, err
		}

		return Empty(), nil
	case *Del:
		if err := m.Delete(ctx, q.Keys); err != nil {
			return nil, err
		}

		return Empty(), nil
	}

	return nil, types.NewQueryError("%s is not a key-value statement", stmt.Operation())
}
