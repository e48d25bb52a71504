package datasource

import (
	"context"
	"database/sql"
)

// Conn is a connection pinned from a pool; its statements are instrumented by the pool.
type Conn struct {
	pool *Pool
	conn *sql.Conn
}

var _ Executor = (*Conn)(nil)

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.pool.exec(ctx, c.conn, query, args)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.pool.query(ctx, c.conn, query, args)
}

// BeginTx starts a transaction on the pinned connection.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{pool: c.pool, tx: tx}, nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Tx is a transaction of a pool; its statements are instrumented by the pool.
type Tx struct {
	pool *Pool
	tx   *sql.Tx
}

var _ Executor = (*Tx)(nil)

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.pool.exec(ctx, t.tx, query, args)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.pool.query(ctx, t.tx, query, args)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
