// Package transfer implements atomic two-sided transfers: a debit leg on
// the source account and a credit leg on the destination, plus both balance
// mutations, all inside one transaction scope.
package transfer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/domain"
)

// Input represents the input for a transfer between two accounts
type Input struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Description   string
}

// Result carries refreshed snapshots of both accounts after commit
type Result struct {
	From *domain.Account
	To   *domain.Account
}

// Service coordinates transfers on top of the ledger store
type Service struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	txManager    domain.TransactionManager
	events       domain.EventPublisher // optional; nil disables emission
}

// NewService creates a new transfer Service instance.
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

// Transfer moves funds between two distinct accounts as one indivisible
// operation. Either both legs and both balance mutations become durably
// visible, or none do; there is no intermediate state where money is in
// flight unaccounted by either account.
//
// Precondition failures (ErrSameAccount, ErrInvalidAmount,
// ErrCurrencyMismatch, ErrInsufficientFunds) leave no side effects.
func (s *Service) Transfer(ctx context.Context, input Input) (*Result, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, s.fail(ctx, input, domain.ErrSameAccount)
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, s.fail(ctx, input, domain.ErrInvalidAmount)
	}

	var from, to *domain.Account

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error

		// Lock both rows lowest identifier first so two opposing transfers
		// between the same pair cannot deadlock.
		if input.FromAccountID.String() < input.ToAccountID.String() {
			from, err = s.accounts.Lock(txCtx, input.FromAccountID)
			if err != nil {
				return fmt.Errorf("failed to lock source account: %w", err)
			}
			to, err = s.accounts.Lock(txCtx, input.ToAccountID)
			if err != nil {
				return fmt.Errorf("failed to lock destination account: %w", err)
			}
		} else {
			to, err = s.accounts.Lock(txCtx, input.ToAccountID)
			if err != nil {
				return fmt.Errorf("failed to lock destination account: %w", err)
			}
			from, err = s.accounts.Lock(txCtx, input.FromAccountID)
			if err != nil {
				return fmt.Errorf("failed to lock source account: %w", err)
			}
		}

		if from.Closed() || to.Closed() {
			return domain.ErrNotFound
		}
		if from.Currency != to.Currency {
			return domain.ErrCurrencyMismatch
		}

		if err := from.Debit(input.Amount); err != nil {
			return err
		}
		to.Credit(input.Amount)

		debitLeg := domain.NewTransaction(
			from.ID,
			domain.TransactionKindDebit,
			input.Amount,
			fmt.Sprintf("Transfer to %s: %s", to.Number, input.Description),
		)
		creditLeg := domain.NewTransaction(
			to.ID,
			domain.TransactionKindCredit,
			input.Amount,
			fmt.Sprintf("Transfer from %s: %s", from.Number, input.Description),
		)

		if err := s.transactions.Create(txCtx, debitLeg); err != nil {
			return fmt.Errorf("failed to create debit leg: %w", err)
		}
		if err := s.transactions.Create(txCtx, creditLeg); err != nil {
			return fmt.Errorf("failed to create credit leg: %w", err)
		}
		if err := s.accounts.Update(txCtx, from); err != nil {
			return fmt.Errorf("failed to update source balance: %w", err)
		}
		if err := s.accounts.Update(txCtx, to); err != nil {
			return fmt.Errorf("failed to update destination balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, input, err)
	}

	result := &Result{From: from, To: to}
	s.emit(ctx, domain.EventTransferCompleted, map[string]interface{}{
		"from_account": from,
		"to_account":   to,
		"amount":       input.Amount,
	})
	return result, nil
}

// fail emits a transfer.failed event and passes the error through.
func (s *Service) fail(ctx context.Context, input Input, err error) error {
	s.emit(ctx, domain.EventTransferFailed, map[string]interface{}{
		"from_account_id": input.FromAccountID,
		"to_account_id":   input.ToAccountID,
		"amount":          input.Amount,
		"error":           err.Error(),
	})
	return err
}

// emit publishes a domain event best-effort; a failure to publish never
// alters the outcome of the transfer itself.
func (s *Service) emit(ctx context.Context, name string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domain.NewEvent(name, data)); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
	}
}
