package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account as personal or business
type AccountType string

const (
	AccountTypePersonal AccountType = "Personal"
	AccountTypeBusiness AccountType = "Business"
)

// Currency is the ISO 4217 code of the account's denomination
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Account represents a ledger account owned by a user.
// Balance is the live balance maintained by the posting protocol.
// InitialBalance is the balance recorded at open time and never changes,
// so balances can be reconstructed from history independently of Balance.
type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Number         string // Luhn-valid 12-16 digit account number
	Type           AccountType
	Currency       Currency
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time // soft delete; transaction history survives
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.New("account name cannot be empty")
	}

	if a.Type != AccountTypePersonal && a.Type != AccountTypeBusiness {
		return errors.New("account type must be Personal or Business")
	}

	if a.Currency != CurrencyUSD && a.Currency != CurrencyEUR && a.Currency != CurrencyGBP {
		return errors.New("account currency must be USD, EUR or GBP")
	}

	if a.Balance.IsNegative() || a.InitialBalance.IsNegative() {
		return errors.New("account balance cannot be negative")
	}

	return nil
}

// Closed reports whether the account has been soft-deleted.
func (a *Account) Closed() bool {
	return a.DeletedAt != nil
}

// Credit adds amount to the live balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
}

// Debit subtracts amount from the live balance.
// Returns ErrInsufficientFunds if the balance would go negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	return nil
}
