package pool

import (
	"context"
	"database/sql"
)

// Conn is an owned handle to one pooled connection. It stays valid until it is
// passed to Release.
type Conn struct {
	raw  *sql.Conn
	pool *Pool
}

// ExecContext runs a statement on the held connection.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.raw.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the held connection.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.raw.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the held connection.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.raw.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the held connection. The transaction must
// be finished before the handle is released.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.raw.BeginTx(ctx, opts)
}

// Release hands the connection back to its pool.
func (c *Conn) Release() error {
	if c == nil || c.pool == nil {
		return ErrNotOwned
	}
	return c.pool.Release(c)
}
