package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository.
// The table is append-only: postings are immutable once created.
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create persists a new posting
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, kind, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		tx.AccountID,
		string(tx.Kind),
		tx.Amount.String(),
		tx.Description,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// ListByAccount retrieves the account's postings newest first, optionally
// bounded to [from, to] inclusive
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, description, created_at
		FROM transactions
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var (
			tx        domain.Transaction
			kind      string
			amountStr string
		)
		if err := rows.Scan(&tx.ID, &tx.AccountID, &kind, &amountStr, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Kind = domain.TransactionKind(kind)
		if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// SumByKind totals the account's postings of the given kind before (or
// through, when inclusive) the given instant
func (r *transactionRepository) SumByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind, until time.Time, inclusive bool) (decimal.Decimal, error) {
	op := "<"
	if inclusive {
		op = "<="
	}
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND kind = $2 AND created_at %s $3
	`, op)

	var sumStr string
	err := r.db.conn(ctx).QueryRowContext(ctx, query, accountID, string(kind), until).Scan(&sumStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse sum: %w", err)
	}
	return sum, nil
}
