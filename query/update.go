package query

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
)

type assignment struct {
	col   string
	value any
}

// Update changes the matching T rows.
type Update[T any, PT RecordPtr[T]] struct {
	base
	set   []assignment
	where clause
}

func NewUpdate[T any, PT RecordPtr[T]](reg *datasource.Registry) *Update[T, PT] {
	return &Update[T, PT]{base: newBase[T, PT](reg)}
}

// Backend overrides the active dialect.
func (u *Update[T, PT]) Backend(b backend.Backend) *Update[T, PT] {
	u.mutate()
	u.dialect = b
	return u
}

// Set assigns value to col; assignments keep the call order.
func (u *Update[T, PT]) Set(col string, value any) *Update[T, PT] {
	u.mutate()
	u.set = append(u.set, assignment{col: col, value: value})
	return u
}

func (u *Update[T, PT]) And(p Predicate) *Update[T, PT] {
	u.mutate()
	u.where.add("AND", p)
	return u
}

func (u *Update[T, PT]) Or(p Predicate) *Update[T, PT] {
	u.mutate()
	u.where.add("OR", p)
	return u
}

func (u *Update[T, PT]) sqlizer() sq.Sqlizer {
	q := sq.Update(u.schema.TableName())
	for _, a := range u.set {
		q = q.Set(a.col, a.value)
	}
	if !u.where.empty() {
		e := u.where.expr()
		q = q.Where(sq.Expr(e.sql, e.args...))
	}
	return q.PlaceholderFormat(u.dialect.PlaceholderFormat())
}

func (u *Update[T, PT]) check() error {
	if len(u.set) == 0 {
		return u.fail(ErrEmptyUpdateFields)
	}
	return nil
}

// ToSQL compiles the statement and consumes the builder.
func (u *Update[T, PT]) ToSQL() (string, []any, error) {
	if err := u.check(); err != nil {
		return "", nil, err
	}
	return u.toSQL(u.sqlizer())
}

// Execute runs the statement and returns the number of affected rows.
func (u *Update[T, PT]) Execute(ctx context.Context) (int64, error) {
	if err := u.check(); err != nil {
		return 0, err
	}
	return u.execute(ctx, u.sqlizer())
}

// ExecuteTx runs the statement in a transaction of its own.
func (u *Update[T, PT]) ExecuteTx(ctx context.Context) (int64, error) {
	if err := u.check(); err != nil {
		return 0, err
	}
	return u.executeTx(ctx, u.sqlizer())
}

// ExecuteInTransaction runs the statement by ex.
func (u *Update[T, PT]) ExecuteInTransaction(ctx context.Context, ex datasource.Executor) (int64, error) {
	if err := u.check(); err != nil {
		return 0, err
	}
	return u.exec(ctx, ex, u.sqlizer())
}
