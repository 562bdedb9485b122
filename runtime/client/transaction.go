package client

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a Session bound to one database transaction.
type Tx struct {
	executor
	tx    *sql.Tx
	depth int // nesting depth for savepoints
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Tx) error

// Transaction executes fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back;
// otherwise it is committed.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithOptions executes a transaction with custom options
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) (err error) {
	sqlTx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{
		executor: executor{conn: sqlTx, cfg: c.cfg, inTx: true},
		tx:       sqlTx,
	}

	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadOnlyTransaction executes a read-only transaction
func (c *Client) ReadOnlyTransaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// Savepoint runs fn inside a savepoint of the transaction. An error or
// panic rolls back to the savepoint and leaves the enclosing transaction
// usable.
func (tx *Tx) Savepoint(ctx context.Context, fn TransactionFunc) error {
	tx.depth++
	defer func() { tx.depth-- }()
	name := tx.cfg.dialect.QuoteIdent(fmt.Sprintf("sp_%d", tx.depth))

	if _, err := tx.ExecRaw(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_, _ = tx.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if _, rbErr := tx.ExecRaw(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("savepoint error: %w, rollback error: %w", err, rbErr)
		}
		return err
	}

	if _, err := tx.ExecRaw(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}
