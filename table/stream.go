package table

import (
	"context"
	"iter"
)

// Stream executes the query on every iteration and converts the rows lazily.
// A row conversion error is yielded with that row and the iteration goes on,
// a statement error is yielded once and ends it.
func Stream[T any](ctx context.Context, src Source, scan ScanFunc[T], query string, args ...any) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		ex, err := src()
		if err != nil {
			yield(nil, err)
			return
		}
		rows, err := ex.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			if !yield(scan(rows)) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Collect gathers a stream, failing on the first error.
func Collect[T any](seq iter.Seq2[*T, error]) ([]*T, error) {
	var result []*T
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, nil
}

// Many selects all matching rows.
func Many[T any](ctx context.Context, src Source, scan ScanFunc[T], query string, args ...any) ([]*T, error) {
	return Collect(Stream(ctx, src, scan, query, args...))
}

// One selects exactly one row; ErrRowNotFound when there is none, ErrMultipleRows when there are more.
func One[T any](ctx context.Context, src Source, scan ScanFunc[T], query string, args ...any) (*T, error) {
	row, err := Optional(ctx, src, scan, query, args...)
	if err != nil {
		return nil, err
	} else if row == nil {
		return nil, ErrRowNotFound
	}
	return row, nil
}

// Optional selects zero or one row; nil without error when there is none, ErrMultipleRows when there are more.
func Optional[T any](ctx context.Context, src Source, scan ScanFunc[T], query string, args ...any) (*T, error) {
	var found *T
	for row, err := range Stream(ctx, src, scan, query, args...) {
		if err != nil {
			return nil, err
		} else if found != nil {
			return nil, ErrMultipleRows
		}
		found = row
	}
	return found, nil
}
