// Package query builds and executes statements over queryable generated tables.
package query

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
	"github.com/Plato-solutions/cherry/table"
)

var (
	ErrEmptyUpdateFields = errors.New("empty update fields")
	ErrConsumed          = errors.New("query builder already consumed")
)

// RecordPtr is the pointer type of a queryable row.
type RecordPtr[T any] interface {
	*T
	table.Record
}

type base struct {
	reg      *datasource.Registry
	schema   table.Schema
	dialect  backend.Backend
	consumed bool
}

func newBase[T any, PT RecordPtr[T]](reg *datasource.Registry) base {
	return base{reg: reg, schema: PT(new(T)), dialect: backend.Active}
}

// mutate guards the builder methods; a consumed builder is a programming error.
func (b *base) mutate() {
	if b.consumed {
		panic(ErrConsumed)
	}
}

func (b *base) consume() error {
	if b.consumed {
		return ErrConsumed
	}
	b.consumed = true
	return nil
}

// fail consumes the builder on a compile error; a consumed builder reports ErrConsumed instead.
func (b *base) fail(err error) error {
	if consumedErr := b.consume(); consumedErr != nil {
		return consumedErr
	}
	return err
}

func (b *base) executor() (datasource.Executor, error) {
	return b.reg.Executor(b.schema.Datasource())
}

func (b *base) toSQL(s sq.Sqlizer) (string, []any, error) {
	if err := b.consume(); err != nil {
		return "", nil, err
	}
	return s.ToSql()
}

func (b *base) exec(ctx context.Context, ex datasource.Executor, s sq.Sqlizer) (int64, error) {
	query, args, err := b.toSQL(s)
	if err != nil {
		return 0, err
	}
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (b *base) execute(ctx context.Context, s sq.Sqlizer) (int64, error) {
	ex, err := b.executor()
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, ex, s)
}

func (b *base) executeTx(ctx context.Context, s sq.Sqlizer) (affected int64, err error) {
	tx, err := b.reg.Begin(ctx, b.schema.Datasource())
	if err != nil {
		return 0, err
	}
	if affected, err = b.exec(ctx, tx, s); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return 0, errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return 0, err
	}
	return affected, tx.Commit()
}
