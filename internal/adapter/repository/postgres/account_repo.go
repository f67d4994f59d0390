package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique index violations.
const uniqueViolation = "23505"

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, user_id, name, number, type, currency, balance, initial_balance, created_at, updated_at, deleted_at`

// Create persists a new account. Unique-index violations are mapped to the
// domain error kinds so races that slip past the pre-checks still resolve
// correctly under concurrent creation.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, number, type, currency, balance, initial_balance, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Name,
		account.Number,
		string(account.Type),
		string(account.Currency),
		account.Balance.String(),
		account.InitialBalance.String(),
		account.CreatedAt,
		account.UpdatedAt,
		account.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_user_name_key") {
			return domain.ErrDuplicateName
		}
		if isUniqueViolation(err, "accounts_number_key") {
			return domain.ErrNumberTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its internal identifier
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, id))
}

// GetByNumber retrieves an account by its user-facing account number
func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1`
	return r.scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, number))
}

// Update persists changes to an existing account
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2,
		    type = $3,
		    currency = $4,
		    balance = $5,
		    updated_at = $6,
		    deleted_at = $7
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		account.ID,
		account.Name,
		string(account.Type),
		string(account.Currency),
		account.Balance.String(),
		account.UpdatedAt,
		account.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_user_name_key") {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Lock retrieves the account row with SELECT ... FOR UPDATE, holding
// exclusive access until the surrounding transaction ends. Must be called
// within a TxManager scope.
func (r *accountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, id))
}

// NameTaken reports whether the owner already has a non-deleted account
// with the given name, ignoring the excluded account
func (r *accountRepository) NameTaken(ctx context.Context, userID uuid.UUID, name string, exclude uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE user_id = $1 AND name = $2 AND deleted_at IS NULL AND id <> $3
		)
	`

	var taken bool
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, userID, name, exclude).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check name uniqueness: %w", err)
	}
	return taken, nil
}

// NumberExists reports whether any account carries the given number
func (r *accountRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)`

	var exists bool
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// scanAccount maps a row onto the domain entity, parsing the NUMERIC
// columns through their string form to keep full decimal precision.
func (r *accountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		account           domain.Account
		balanceStr        string
		initialBalanceStr string
		deletedAt         sql.NullTime
		accountType       string
		currency          string
	)

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Number,
		&accountType,
		&currency,
		&balanceStr,
		&initialBalanceStr,
		&account.CreatedAt,
		&account.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.Type = domain.AccountType(accountType)
	account.Currency = domain.Currency(currency)

	if account.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	if account.InitialBalance, err = decimal.NewFromString(initialBalanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse initial_balance: %w", err)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		account.DeletedAt = &t
	}

	return &account, nil
}

// isUniqueViolation reports whether err is a unique-index violation on the
// named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}
