package domain

import "errors"

var (
	// ErrNotFound is returned when an account (or webhook) doesn't exist
	// or has already been closed
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when the owner already has a non-deleted
	// account with the requested name
	ErrDuplicateName = errors.New("account name already in use")

	// ErrInsufficientFunds is returned when a debit would overdraw the account
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount is zero or negative
	ErrInvalidAmount = errors.New("invalid amount: must be positive")

	// ErrSameAccount is returned when a transfer names the same account twice
	ErrSameAccount = errors.New("source and destination must be different accounts")

	// ErrCurrencyMismatch is returned when a transfer spans accounts of
	// different currencies; the ledger performs no conversion
	ErrCurrencyMismatch = errors.New("currency mismatch between accounts")

	// ErrNumberTaken is returned by repositories when an insert loses a race
	// on the account number's unique index. Account opening retries with a
	// fresh number; callers never see this error
	ErrNumberTaken = errors.New("account number already in use")
)
