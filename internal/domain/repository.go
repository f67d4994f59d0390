package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account persistence operations.
// Lookups return soft-deleted accounts too (with DeletedAt set); callers
// decide whether a closed account is acceptable for the operation at hand.
type AccountRepository interface {
	// Create persists a new account
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by its internal identifier
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByNumber retrieves an account by its user-facing account number
	GetByNumber(ctx context.Context, number string) (*Account, error)

	// Update persists changes to an existing account, including the
	// soft-delete marker
	Update(ctx context.Context, account *Account) error

	// Lock retrieves the account while acquiring exclusive access to its row
	// for the duration of the surrounding transaction. Must be called within
	// a TransactionManager scope.
	Lock(ctx context.Context, id uuid.UUID) (*Account, error)

	// NameTaken reports whether the owner already has a non-deleted account
	// with the given name, ignoring the account identified by exclude
	// (pass uuid.Nil to exclude nothing)
	NameTaken(ctx context.Context, userID uuid.UUID, name string, exclude uuid.UUID) (bool, error)

	// NumberExists reports whether any account, deleted or not, carries the
	// given account number
	NumberExists(ctx context.Context, number string) (bool, error)
}

// TransactionRepository defines the interface for posting persistence.
// Postings are append-only; there is no update or delete.
type TransactionRepository interface {
	// Create persists a new posting
	Create(ctx context.Context, tx *Transaction) error

	// ListByAccount retrieves the account's postings newest first,
	// optionally bounded to [from, to] inclusive (nil means unbounded)
	ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*Transaction, error)

	// SumByKind totals the amounts of the account's postings of the given
	// kind with CreatedAt before until (or at until, when inclusive)
	SumByKind(ctx context.Context, accountID uuid.UUID, kind TransactionKind, until time.Time, inclusive bool) (decimal.Decimal, error)
}

// WebhookRepository defines the interface for webhook registry persistence.
type WebhookRepository interface {
	// Create persists a new webhook registration
	Create(ctx context.Context, webhook *Webhook) error

	// GetByID retrieves a webhook by its identifier
	GetByID(ctx context.Context, id uuid.UUID) (*Webhook, error)

	// ListByUser retrieves all of the owner's webhooks
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Webhook, error)

	// ListActiveForEvent retrieves every active webhook subscribed to the event
	ListActiveForEvent(ctx context.Context, event string) ([]*Webhook, error)

	// Delete removes a webhook registration
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionManager defines the interface for managing atomic units of work.
// This abstraction lets the services express the posting and transfer
// protocols without being coupled to a specific database implementation.
type TransactionManager interface {
	// WithTransaction executes fn within a transaction scope. If fn returns
	// an error, every change made inside the scope is rolled back; otherwise
	// the scope is committed. Repositories participate through the context.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
