// Package ledger implements the authoritative account and posting
// operations: opening, updating and closing accounts, and the single-entry
// posting primitive that keeps the stored balance consistent with the
// transaction history under concurrent writes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/accountnumber"
	"github.com/finbank/ledger-backend/internal/domain"
)

// numberAttempts bounds the retry loop on account number collisions.
// A collision is astronomically unlikely but handled, not assumed away.
const numberAttempts = 10

// OpenAccountInput represents the input for opening an account
type OpenAccountInput struct {
	UserID         uuid.UUID
	Name           string
	Type           domain.AccountType
	Currency       domain.Currency
	InitialBalance decimal.Decimal
}

// UpdateAccountInput represents the input for renaming or reclassifying
// an account. The balance is never editable by this path.
type UpdateAccountInput struct {
	AccountID uuid.UUID
	Name      string
	Type      domain.AccountType
	Currency  domain.Currency
}

// PostInput represents the input for the single-entry posting primitive
type PostInput struct {
	AccountID   uuid.UUID
	Kind        domain.TransactionKind
	Amount      decimal.Decimal
	Description string
}

// Service handles account lifecycle and posting operations
type Service struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	txManager    domain.TransactionManager
	events       domain.EventPublisher // optional; nil disables emission
}

// NewService creates a new ledger Service instance.
// Pass nil for events if no events should be emitted.
func NewService(
	accounts domain.AccountRepository,
	transactions domain.TransactionRepository,
	txManager domain.TransactionManager,
	events domain.EventPublisher,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		txManager:    txManager,
		events:       events,
	}
}

// OpenAccount creates a new account with a unique Luhn-valid account number.
// Fails with domain.ErrDuplicateName if the owner already has a non-deleted
// account with the same name, and with domain.ErrInvalidAmount if the
// initial balance is negative.
func (s *Service) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.InitialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now()
	account := &domain.Account{
		ID:             uuid.New(),
		UserID:         input.UserID,
		Name:           input.Name,
		Type:           input.Type,
		Currency:       input.Currency,
		Balance:        input.InitialBalance,
		InitialBalance: input.InitialBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	// A concurrent open can insert the same number between the NumberExists
	// pre-check and the insert. The unique violation aborts the database
	// transaction, so the retry restarts the whole scope with a fresh number.
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			taken, err := s.accounts.NameTaken(txCtx, input.UserID, input.Name, uuid.Nil)
			if err != nil {
				return fmt.Errorf("failed to check name uniqueness: %w", err)
			}
			if taken {
				return domain.ErrDuplicateName
			}

			number, err := s.uniqueNumber(txCtx)
			if err != nil {
				return err
			}
			account.Number = number

			if err := s.accounts.Create(txCtx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}
			return nil
		})
		if !errors.Is(err, domain.ErrNumberTaken) {
			break
		}
	}
	if errors.Is(err, domain.ErrNumberTaken) {
		return nil, fmt.Errorf("failed to allocate a unique account number after %d attempts", numberAttempts)
	}
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventAccountCreated, account)
	return account, nil
}

// uniqueNumber generates an account number that no existing account carries,
// retrying a bounded number of times on collision. Exhaustion is surfaced as
// a storage-level failure rather than its own error kind.
func (s *Service) uniqueNumber(ctx context.Context) (string, error) {
	for i := 0; i < numberAttempts; i++ {
		number := accountnumber.Generate()
		exists, err := s.accounts.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check account number uniqueness: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique account number after %d attempts", numberAttempts)
}

// UpdateAccount renames or reclassifies an account. The uniqueness rule
// excludes the account's own row. Fails with domain.ErrNotFound if the
// account is absent or already closed.
func (s *Service) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*domain.Account, error) {
	var account *domain.Account

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.Lock(txCtx, input.AccountID)
		if err != nil {
			return err
		}
		if account.Closed() {
			return domain.ErrNotFound
		}

		taken, err := s.accounts.NameTaken(txCtx, account.UserID, input.Name, account.ID)
		if err != nil {
			return fmt.Errorf("failed to check name uniqueness: %w", err)
		}
		if taken {
			return domain.ErrDuplicateName
		}

		account.Name = input.Name
		account.Type = input.Type
		account.Currency = input.Currency
		account.UpdatedAt = time.Now()
		if err := account.Validate(); err != nil {
			return err
		}

		if err := s.accounts.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventAccountUpdated, account)
	return account, nil
}

// CloseAccount soft-deletes an account. Its transaction history remains
// queryable. Fails with domain.ErrNotFound if absent or already closed.
func (s *Service) CloseAccount(ctx context.Context, accountID uuid.UUID) error {
	var account *domain.Account

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.Lock(txCtx, accountID)
		if err != nil {
			return err
		}
		if account.Closed() {
			return domain.ErrNotFound
		}

		now := time.Now()
		account.DeletedAt = &now
		account.UpdatedAt = now

		if err := s.accounts.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to close account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, domain.EventAccountDeleted, account)
	return nil
}

// GetAccount retrieves an account by its internal identifier.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// GetAccountByNumber retrieves an account by its user-facing number.
func (s *Service) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return s.accounts.GetByNumber(ctx, number)
}

// Post applies the single-entry posting primitive: one Transaction row plus
// the matching balance adjustment, both or neither. A Debit that would
// overdraw the account fails with domain.ErrInsufficientFunds and leaves no
// trace. Returns the created transaction and the post-mutation account.
func (s *Service) Post(ctx context.Context, input PostInput) (*domain.Transaction, *domain.Account, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, domain.ErrInvalidAmount
	}
	if input.Kind != domain.TransactionKindCredit && input.Kind != domain.TransactionKindDebit {
		return nil, nil, errors.New("transaction kind must be Credit or Debit")
	}

	var (
		account *domain.Account
		posting *domain.Transaction
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		account, err = s.accounts.Lock(txCtx, input.AccountID)
		if err != nil {
			return err
		}
		if account.Closed() {
			return domain.ErrNotFound
		}

		// Overdraft check and balance mutation happen under the same row
		// lock, so no concurrent post can interleave between them.
		if input.Kind == domain.TransactionKindDebit {
			if err := account.Debit(input.Amount); err != nil {
				return err
			}
		} else {
			account.Credit(input.Amount)
		}

		posting = domain.NewTransaction(account.ID, input.Kind, input.Amount, input.Description)
		if err := s.transactions.Create(txCtx, posting); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		if err := s.accounts.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		s.emit(ctx, domain.EventTransactionFailed, map[string]interface{}{
			"account_id":  input.AccountID,
			"kind":        input.Kind,
			"amount":      input.Amount,
			"description": input.Description,
			"error":       err.Error(),
		})
		return nil, nil, err
	}

	s.emit(ctx, domain.EventTransactionCreated, posting)
	return posting, account, nil
}

// emit publishes a domain event best-effort: a committed mutation is never
// turned into a failure by the notifier boundary.
func (s *Service) emit(ctx context.Context, name string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domain.NewEvent(name, data)); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
	}
}
