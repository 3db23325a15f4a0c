package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql methods shared by *sql.DB and
// *sql.Tx. Repository methods accept it so the same query runs either
// standalone or inside a transaction opened by the caller.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner executes a function inside a transaction boundary. The
// booking coordinator depends on this interface rather than on *sql.DB
// directly so its check-then-act sequences can be exercised without a
// live database.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLTxRunner runs functions inside real database transactions. The
// transaction is rolled back when fn returns an error or commit fails.
type SQLTxRunner struct {
	DB *sql.DB
}

// RunTx begins a transaction, invokes fn, and commits. Any error from fn
// aborts the transaction and is returned unchanged so sentinel
// comparisons keep working across the boundary.
func (r *SQLTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
