package query

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
)

// Delete removes the matching T rows, all of them without a condition.
type Delete[T any, PT RecordPtr[T]] struct {
	base
	where clause
}

func NewDelete[T any, PT RecordPtr[T]](reg *datasource.Registry) *Delete[T, PT] {
	return &Delete[T, PT]{base: newBase[T, PT](reg)}
}

// Backend overrides the active dialect.
func (d *Delete[T, PT]) Backend(b backend.Backend) *Delete[T, PT] {
	d.mutate()
	d.dialect = b
	return d
}

func (d *Delete[T, PT]) And(p Predicate) *Delete[T, PT] {
	d.mutate()
	d.where.add("AND", p)
	return d
}

func (d *Delete[T, PT]) Or(p Predicate) *Delete[T, PT] {
	d.mutate()
	d.where.add("OR", p)
	return d
}

func (d *Delete[T, PT]) sqlizer() sq.Sqlizer {
	q := sq.Delete(d.schema.TableName())
	if !d.where.empty() {
		e := d.where.expr()
		q = q.Where(sq.Expr(e.sql, e.args...))
	}
	return q.PlaceholderFormat(d.dialect.PlaceholderFormat())
}

// ToSQL compiles the statement and consumes the builder.
func (d *Delete[T, PT]) ToSQL() (string, []any, error) {
	return d.toSQL(d.sqlizer())
}

func (d *Delete[T, PT]) Execute(ctx context.Context) (int64, error) {
	return d.execute(ctx, d.sqlizer())
}

// ExecuteTx runs the statement in a transaction of its own.
func (d *Delete[T, PT]) ExecuteTx(ctx context.Context) (int64, error) {
	return d.executeTx(ctx, d.sqlizer())
}

// ExecuteInTransaction runs the statement by ex.
func (d *Delete[T, PT]) ExecuteInTransaction(ctx context.Context, ex datasource.Executor) (int64, error) {
	return d.exec(ctx, ex, d.sqlizer())
}
