package query

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
)

// Select queries T rows.
type Select[T any, PT RecordPtr[T]] struct {
	base
	fields  []string
	custom  bool
	where   clause
	having  clause
	groupBy []string
	orderBy []string
	limit   *uint64
	offset  *uint64
}

// NewSelect starts a select of every mapped field of T.
func NewSelect[T any, PT RecordPtr[T]](reg *datasource.Registry) *Select[T, PT] {
	s := &Select[T, PT]{base: newBase[T, PT](reg)}
	s.fields = s.schema.SelectColumns()
	return s
}

// Backend overrides the active dialect.
func (s *Select[T, PT]) Backend(b backend.Backend) *Select[T, PT] {
	s.mutate()
	s.dialect = b
	return s
}

// Fields appends select list entries; the first one replaces the mapped fields list
// and the rows are then read by Rows instead of Fetch.
func (s *Select[T, PT]) Fields(fields ...string) *Select[T, PT] {
	s.mutate()
	if !s.custom {
		s.fields = nil
		s.custom = true
	}
	s.fields = append(s.fields, fields...)
	return s
}

// Field appends a select list entry.
func (s *Select[T, PT]) Field(field string) *Select[T, PT] {
	return s.Fields(field)
}

// FieldsAll restores the select list of every mapped field.
func (s *Select[T, PT]) FieldsAll() *Select[T, PT] {
	s.mutate()
	s.fields = s.schema.SelectColumns()
	s.custom = false
	return s
}

// CountAs appends the count of field, "*" for rows, named alias.
func (s *Select[T, PT]) CountAs(field, alias string) *Select[T, PT] {
	return s.Fields("COUNT(" + field + ") AS " + alias)
}

func (s *Select[T, PT]) And(p Predicate) *Select[T, PT] {
	s.mutate()
	s.where.add("AND", p)
	return s
}

func (s *Select[T, PT]) Or(p Predicate) *Select[T, PT] {
	s.mutate()
	s.where.add("OR", p)
	return s
}

func (s *Select[T, PT]) GroupBy(cols ...string) *Select[T, PT] {
	s.mutate()
	s.groupBy = append(s.groupBy, cols...)
	return s
}

// Having adds a group condition joined by AND.
func (s *Select[T, PT]) Having(p Predicate) *Select[T, PT] {
	s.mutate()
	s.having.add("AND", p)
	return s
}

// OrderBy appends an order expression as is.
func (s *Select[T, PT]) OrderBy(expr string) *Select[T, PT] {
	s.mutate()
	s.orderBy = append(s.orderBy, expr)
	return s
}

func (s *Select[T, PT]) OrderAsc(col string) *Select[T, PT]  { return s.OrderBy(col + " ASC") }
func (s *Select[T, PT]) OrderDesc(col string) *Select[T, PT] { return s.OrderBy(col + " DESC") }

func (s *Select[T, PT]) Limit(limit uint64) *Select[T, PT] {
	s.mutate()
	s.limit = &limit
	return s
}

func (s *Select[T, PT]) Offset(offset uint64) *Select[T, PT] {
	s.mutate()
	s.offset = &offset
	return s
}

func (s *Select[T, PT]) sqlizer() sq.Sqlizer {
	q := sq.Select(s.fields...).From(s.schema.TableName())
	if !s.where.empty() {
		e := s.where.expr()
		q = q.Where(sq.Expr(e.sql, e.args...))
	}
	if len(s.groupBy) > 0 {
		q = q.GroupBy(s.groupBy...)
	}
	if !s.having.empty() {
		e := s.having.expr()
		q = q.Having(sq.Expr(e.sql, e.args...))
	}
	if len(s.orderBy) > 0 {
		q = q.OrderBy(s.orderBy...)
	}
	if s.limit != nil {
		q = q.Limit(*s.limit)
	}
	if s.offset != nil {
		q = q.Offset(*s.offset)
	}
	return q.PlaceholderFormat(s.dialect.PlaceholderFormat())
}

// ToSQL compiles the statement and consumes the builder.
func (s *Select[T, PT]) ToSQL() (string, []any, error) {
	return s.toSQL(s.sqlizer())
}

// Rows executes the statement; the caller closes the rows.
func (s *Select[T, PT]) Rows(ctx context.Context) (*sql.Rows, error) {
	ex, err := s.executor()
	if err != nil {
		return nil, err
	}
	return s.rowsIn(ctx, ex)
}

func (s *Select[T, PT]) rowsIn(ctx context.Context, ex datasource.Executor) (*sql.Rows, error) {
	query, args, err := s.ToSQL()
	if err != nil {
		return nil, err
	}
	return ex.QueryContext(ctx, query, args...)
}

// Fetch returns the first row, nil when there is none.
func (s *Select[T, PT]) Fetch(ctx context.Context) (*T, error) {
	ex, err := s.executor()
	if err != nil {
		return nil, err
	}
	return s.FetchInTransaction(ctx, ex)
}

// FetchInTransaction is Fetch run by ex.
func (s *Select[T, PT]) FetchInTransaction(ctx context.Context, ex datasource.Executor) (*T, error) {
	rows, err := s.fetch(ctx, ex, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (s *Select[T, PT]) FetchAll(ctx context.Context) ([]*T, error) {
	ex, err := s.executor()
	if err != nil {
		return nil, err
	}
	return s.FetchAllInTransaction(ctx, ex)
}

// FetchAllInTransaction is FetchAll run by ex.
func (s *Select[T, PT]) FetchAllInTransaction(ctx context.Context, ex datasource.Executor) ([]*T, error) {
	return s.fetch(ctx, ex, -1)
}

func (s *Select[T, PT]) fetch(ctx context.Context, ex datasource.Executor, limit int) ([]*T, error) {
	if s.custom {
		return nil, errors.New("custom select list, read the result by Rows")
	}
	rows, err := s.rowsIn(ctx, ex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*T
	for (limit < 0 || len(result) < limit) && rows.Next() {
		row := new(T)
		if err := PT(row).ScanRow(rows); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
