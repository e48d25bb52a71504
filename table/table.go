// Package table holds the runtime helpers of generated table accessors.
package table

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Plato-solutions/cherry/datasource"
)

var (
	ErrRowNotFound  = errors.New("row not found")
	ErrMultipleRows = errors.New("more than one row")
)

// InsertFollowUpError reports an insert that is persisted although the generated values could not be fetched.
type InsertFollowUpError struct {
	Table string
	Err   error
}

func NewInsertFollowUpError(table string, err error) *InsertFollowUpError {
	return &InsertFollowUpError{Table: table, Err: err}
}

func (e *InsertFollowUpError) Error() string {
	return fmt.Sprintf("insert into %s succeeded, fetching generated values failed: %v", e.Table, e.Err)
}

func (e *InsertFollowUpError) Unwrap() error { return e.Err }

// Scanner reads the columns of the current row; implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc converts a row.
type ScanFunc[T any] func(row Scanner) (*T, error)

// Source resolves the executor of a statement.
type Source func() (datasource.Executor, error)

// Use makes a source of a fixed executor.
func Use(ex datasource.Executor) Source {
	return func() (datasource.Executor, error) { return ex, nil }
}

// Schema describes the table of a queryable type.
type Schema interface {
	TableName() string
	Datasource() string
	// Columns are the mapped column references in field order.
	Columns() []string
	// SelectColumns are the select list entries in field order, aliased where the column is renamed.
	SelectColumns() []string
}

// Record is a queryable row.
type Record interface {
	Schema
	// Arguments are the mapped field values in Columns order.
	Arguments() []any
	ScanRow(row Scanner) error
}

// Patch is a partial update of a T row identified by an ID.
type Patch[T any, ID any] interface {
	ApplyTo(row *T)
	PatchRow(ctx context.Context, ex datasource.Executor, id ID) error
}

// Exec executes a statement.
func Exec(ctx context.Context, src Source, query string, args ...any) error {
	_, err := exec(ctx, src, query, args)
	return err
}

// ExecOne executes a statement that must affect a row, ErrRowNotFound otherwise.
func ExecOne(ctx context.Context, src Source, query string, args ...any) error {
	result, err := exec(ctx, src, query, args)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	} else if affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

func exec(ctx context.Context, src Source, query string, args []any) (sql.Result, error) {
	ex, err := src()
	if err != nil {
		return nil, err
	}
	return ex.ExecContext(ctx, query, args...)
}

// QueryRow scans the single row of a query into dest, ErrRowNotFound when there is none.
func QueryRow(ctx context.Context, ex datasource.Executor, dest []any, query string, args ...any) error {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrRowNotFound
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Close()
}

// LastInsertID returns the id generated by an insert.
// Drivers that do not report it are asked by the follow-up query on the same executor.
func LastInsertID(ctx context.Context, ex datasource.Executor, result sql.Result, query string) (int64, error) {
	if id, err := result.LastInsertId(); err == nil {
		return id, nil
	}
	var id int64
	if err := QueryRow(ctx, ex, []any{&id}, query); err != nil {
		return 0, err
	}
	return id, nil
}

type pinned interface {
	datasource.Executor
	Close() error
}

// Pin runs statements on a single connection: a pool or a database is asked for a dedicated connection,
// any other executor is already bound to one.
func Pin(ctx context.Context, src Source, statements func(ex datasource.Executor) error) error {
	ex, err := src()
	if err != nil {
		return err
	}
	var conn pinned
	switch c := ex.(type) {
	case *datasource.Pool:
		conn, err = c.Conn(ctx)
	case *sql.DB:
		conn, err = c.Conn(ctx)
	default:
		return statements(ex)
	}
	if err != nil {
		return err
	}
	defer conn.Close()
	return statements(conn)
}
