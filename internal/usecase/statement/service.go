// Package statement reconstructs balances from transaction history,
// independently of the live stored balance, for statement generation and
// auditing. Everything here is read-only.
package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/domain"
)

// Statement is a statement period for an account: the balance entering the
// period, the balance leaving it, and the postings in between, newest first.
// Rendering (PDF, HTML) is the caller's concern.
type Statement struct {
	Account        *domain.Account
	Start          time.Time
	End            time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Transactions   []*domain.Transaction
}

// Service computes balances as-of arbitrary instants
type Service struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
}

// NewService creates a new statement Service instance
func NewService(accounts domain.AccountRepository, transactions domain.TransactionRepository) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
	}
}

// BalanceAsOf derives the account balance at the given instant from the
// initial balance recorded at open time plus the credit/debit history:
//
//	initial + sum(credits before at) - sum(debits before at)
//
// with "before" meaning <= when inclusive, < otherwise. Works for closed
// accounts too, since history survives soft deletion. When no posting is
// concurrently in flight, BalanceAsOf(now, true) equals the live balance.
func (s *Service) BalanceAsOf(ctx context.Context, accountID uuid.UUID, at time.Time, inclusive bool) (decimal.Decimal, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.balanceAsOf(ctx, account, at, inclusive)
}

func (s *Service) balanceAsOf(ctx context.Context, account *domain.Account, at time.Time, inclusive bool) (decimal.Decimal, error) {
	credits, err := s.transactions.SumByKind(ctx, account.ID, domain.TransactionKindCredit, at, inclusive)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum credits: %w", err)
	}

	debits, err := s.transactions.SumByKind(ctx, account.ID, domain.TransactionKindDebit, at, inclusive)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum debits: %w", err)
	}

	return account.InitialBalance.Add(credits).Sub(debits), nil
}

// Statement assembles a statement for [start, end]: opening balance strictly
// before the period, closing balance through its end, and the postings that
// fall inside it.
func (s *Service) Statement(ctx context.Context, accountID uuid.UUID, start, end time.Time) (*Statement, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("statement period end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	opening, err := s.balanceAsOf(ctx, account, start, false)
	if err != nil {
		return nil, err
	}

	closing, err := s.balanceAsOf(ctx, account, end, true)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions.ListByAccount(ctx, accountID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &Statement{
		Account:        account,
		Start:          start,
		End:            end,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   transactions,
	}, nil
}

// Transactions lists an account's postings newest first, optionally bounded
// to [from, to] inclusive.
func (s *Service) Transactions(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.transactions.ListByAccount(ctx, accountID, from, to)
}
