package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
)

// txKey is the key type for storing the transaction in the context.
type txKey struct{}

// TxManager implements domain.TransactionManager over database/sql.
type TxManager struct {
	db *DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction executes fn within a database transaction. If fn returns
// an error the transaction is rolled back in full before the error is
// surfaced; otherwise it is committed. The transaction travels in the
// context so repositories pick it up transparently.
func (tm *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction: %v", err)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err // rolled back by the deferred Rollback
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txFrom retrieves the transaction from the context, nil if absent.
func txFrom(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}
