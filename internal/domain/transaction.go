package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a posting
type TransactionKind string

const (
	TransactionKindCredit TransactionKind = "Credit"
	TransactionKindDebit  TransactionKind = "Debit"
)

// Transaction represents a single immutable posting against an account.
// Amount is always the positive magnitude; the sign is implied by Kind.
// A transaction is only ever created inside the same atomic unit as the
// owning account's balance mutation, and is never updated or deleted;
// corrections are new offsetting transactions.
type Transaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Kind        TransactionKind
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return errors.New("transaction must reference an account")
	}

	if t.Kind != TransactionKindCredit && t.Kind != TransactionKindDebit {
		return errors.New("transaction kind must be Credit or Debit")
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// NewTransaction builds a posting for the given account.
func NewTransaction(accountID uuid.UUID, kind TransactionKind, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
}
