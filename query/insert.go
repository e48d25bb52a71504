package query

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/backend"
	"github.com/Plato-solutions/cherry/datasource"
)

var (
	ErrNoRows             = errors.New("no rows to insert")
	ErrReplaceUnsupported = errors.New("replace is not supported")
)

type insertMode int

const (
	plainInsert insertMode = iota
	ignoreInsert
	replaceInsert
)

// Insert adds rows with explicit values of every mapped column, in one statement.
type Insert[T any, PT RecordPtr[T]] struct {
	base
	mode insertMode
	rows []*T
}

func NewInsert[T any, PT RecordPtr[T]](reg *datasource.Registry, rows ...*T) *Insert[T, PT] {
	return &Insert[T, PT]{base: newBase[T, PT](reg), rows: rows}
}

// NewInsertIgnore skips the rows conflicting with a unique key.
func NewInsertIgnore[T any, PT RecordPtr[T]](reg *datasource.Registry, rows ...*T) *Insert[T, PT] {
	in := NewInsert[T, PT](reg, rows...)
	in.mode = ignoreInsert
	return in
}

// NewReplace replaces the rows conflicting with a unique key.
func NewReplace[T any, PT RecordPtr[T]](reg *datasource.Registry, rows ...*T) *Insert[T, PT] {
	in := NewInsert[T, PT](reg, rows...)
	in.mode = replaceInsert
	return in
}

// Backend overrides the active dialect.
func (in *Insert[T, PT]) Backend(b backend.Backend) *Insert[T, PT] {
	in.mutate()
	in.dialect = b
	return in
}

// Rows appends rows to insert.
func (in *Insert[T, PT]) Rows(rows ...*T) *Insert[T, PT] {
	in.mutate()
	in.rows = append(in.rows, rows...)
	return in
}

func (in *Insert[T, PT]) sqlizer() (sq.Sqlizer, error) {
	if len(in.rows) == 0 {
		return nil, in.fail(ErrNoRows)
	}
	var q sq.InsertBuilder
	switch in.mode {
	case replaceInsert:
		if !in.dialect.SupportsReplace() {
			return nil, in.fail(errors.Wrap(ErrReplaceUnsupported, in.dialect.Name()))
		}
		q = sq.Replace(in.schema.TableName())
	case ignoreInsert:
		q = sq.Insert(in.schema.TableName())
		if option, suffix := in.dialect.InsertIgnore(); option != "" {
			q = q.Options(option)
		} else {
			q = q.Suffix(suffix)
		}
	default:
		q = sq.Insert(in.schema.TableName())
	}
	return values[T, PT](q.Columns(in.schema.Columns()...), in.rows, in.dialect), nil
}

func values[T any, PT RecordPtr[T]](q sq.InsertBuilder, rows []*T, dialect backend.Backend) sq.InsertBuilder {
	for _, row := range rows {
		q = q.Values(PT(row).Arguments()...)
	}
	return q.PlaceholderFormat(dialect.PlaceholderFormat())
}

// ToSQL compiles the statement and consumes the builder.
func (in *Insert[T, PT]) ToSQL() (string, []any, error) {
	s, err := in.sqlizer()
	if err != nil {
		return "", nil, err
	}
	return in.toSQL(s)
}

// Execute runs the statement and returns the number of affected rows.
func (in *Insert[T, PT]) Execute(ctx context.Context) (int64, error) {
	s, err := in.sqlizer()
	if err != nil {
		return 0, err
	}
	return in.execute(ctx, s)
}

// ExecuteTx runs the statement in a transaction of its own.
func (in *Insert[T, PT]) ExecuteTx(ctx context.Context) (int64, error) {
	s, err := in.sqlizer()
	if err != nil {
		return 0, err
	}
	return in.executeTx(ctx, s)
}

// ExecuteInTransaction runs the statement by ex.
func (in *Insert[T, PT]) ExecuteInTransaction(ctx context.Context, ex datasource.Executor) (int64, error) {
	s, err := in.sqlizer()
	if err != nil {
		return 0, err
	}
	return in.exec(ctx, ex, s)
}

// InsertUpdate adds rows, updating the listed fields of those conflicting with a key.
type InsertUpdate[T any, PT RecordPtr[T]] struct {
	base
	rows     []*T
	update   []string
	conflict []string
}

func NewInsertUpdate[T any, PT RecordPtr[T]](reg *datasource.Registry, rows ...*T) *InsertUpdate[T, PT] {
	return &InsertUpdate[T, PT]{base: newBase[T, PT](reg), rows: rows}
}

// Backend overrides the active dialect.
func (u *InsertUpdate[T, PT]) Backend(b backend.Backend) *InsertUpdate[T, PT] {
	u.mutate()
	u.dialect = b
	return u
}

// Field adds a column updated on conflict.
func (u *InsertUpdate[T, PT]) Field(col string) *InsertUpdate[T, PT] {
	u.mutate()
	u.update = append(u.update, col)
	return u
}

func (u *InsertUpdate[T, PT]) Fields(cols ...string) *InsertUpdate[T, PT] {
	u.mutate()
	u.update = append(u.update, cols...)
	return u
}

// OnConflict sets the conflict target; MySQL ignores it and uses any unique key.
func (u *InsertUpdate[T, PT]) OnConflict(cols ...string) *InsertUpdate[T, PT] {
	u.mutate()
	u.conflict = cols
	return u
}

func (u *InsertUpdate[T, PT]) sqlizer() (sq.Sqlizer, error) {
	if len(u.update) == 0 {
		return nil, u.fail(ErrEmptyUpdateFields)
	} else if len(u.rows) == 0 {
		return nil, u.fail(ErrNoRows)
	}
	suffix, err := u.dialect.Upsert(u.conflict, u.update)
	if err != nil {
		return nil, u.fail(err)
	}
	q := sq.Insert(u.schema.TableName()).Columns(u.schema.Columns()...)
	return values[T, PT](q, u.rows, u.dialect).Suffix(suffix), nil
}

// ToSQL compiles the statement and consumes the builder.
func (u *InsertUpdate[T, PT]) ToSQL() (string, []any, error) {
	s, err := u.sqlizer()
	if err != nil {
		return "", nil, err
	}
	return u.toSQL(s)
}

func (u *InsertUpdate[T, PT]) Execute(ctx context.Context) (int64, error) {
	s, err := u.sqlizer()
	if err != nil {
		return 0, err
	}
	return u.execute(ctx, s)
}

// ExecuteTx runs the statement in a transaction of its own.
func (u *InsertUpdate[T, PT]) ExecuteTx(ctx context.Context) (int64, error) {
	s, err := u.sqlizer()
	if err != nil {
		return 0, err
	}
	return u.executeTx(ctx, s)
}

// ExecuteInTransaction runs the statement by ex.
func (u *InsertUpdate[T, PT]) ExecuteInTransaction(ctx context.Context, ex datasource.Executor) (int64, error) {
	s, err := u.sqlizer()
	if err != nil {
		return 0, err
	}
	return u.exec(ctx, ex, s)
}
