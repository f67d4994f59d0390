// Package memory provides an in-process implementation of the ledger's
// persistence interfaces. It backs the unit and concurrency tests with a
// real serialization point: a store-wide mutex held for the whole
// transaction scope, with a snapshot restore on rollback, giving the same
// atomicity contract the services get from the database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbank/ledger-backend/internal/domain"
)

// txKey marks a context as running inside a transaction scope.
type txKey struct{}

// Store holds all state behind one mutex. It implements
// domain.AccountRepository, domain.TransactionRepository,
// domain.WebhookRepository and domain.TransactionManager.
type Store struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	transactions map[uuid.UUID][]*domain.Transaction // keyed by account ID, append order
	webhooks     map[uuid.UUID]*domain.Webhook
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]*domain.Account),
		transactions: make(map[uuid.UUID][]*domain.Transaction),
		webhooks:     make(map[uuid.UUID]*domain.Webhook),
	}
}

type snapshot struct {
	accounts     map[uuid.UUID]*domain.Account
	transactions map[uuid.UUID][]*domain.Transaction
	webhooks     map[uuid.UUID]*domain.Webhook
}

// WithTransaction runs fn under the store mutex. On error every change made
// inside the scope is rolled back by restoring the pre-transaction snapshot.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// snapshot copies the maps and clones the accounts; transactions and
// webhooks are never mutated in place, so copying the slice headers and
// pointers is enough to restore them.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		accounts:     make(map[uuid.UUID]*domain.Account, len(s.accounts)),
		transactions: make(map[uuid.UUID][]*domain.Transaction, len(s.transactions)),
		webhooks:     make(map[uuid.UUID]*domain.Webhook, len(s.webhooks)),
	}
	for id, a := range s.accounts {
		clone := *a
		snap.accounts[id] = &clone
	}
	for id, txs := range s.transactions {
		snap.transactions[id] = txs[:len(txs):len(txs)]
	}
	for id, w := range s.webhooks {
		snap.webhooks[id] = w
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.webhooks = snap.webhooks
}

// lock acquires the store mutex unless the context is already inside a
// transaction scope, which holds it for the whole scope.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// --- domain.AccountRepository ---

// Create persists a new account.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	defer s.lock(ctx)()

	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

// GetByID retrieves an account, soft-deleted or not.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	defer s.lock(ctx)()
	return s.getAccount(id)
}

// GetByNumber retrieves an account by its user-facing number.
func (s *Store) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	defer s.lock(ctx)()

	for _, a := range s.accounts {
		if a.Number == number {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update writes an account back to the store.
func (s *Store) Update(ctx context.Context, account *domain.Account) error {
	defer s.lock(ctx)()

	if _, ok := s.accounts[account.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

// Lock retrieves the account under the transaction scope's mutex. The mutex
// already serializes the whole scope, so no per-row lock is needed.
func (s *Store) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	defer s.lock(ctx)()
	return s.getAccount(id)
}

func (s *Store) getAccount(id uuid.UUID) (*domain.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

// NameTaken reports whether the owner has a non-deleted account with the
// name, ignoring the excluded account.
func (s *Store) NameTaken(ctx context.Context, userID uuid.UUID, name string, exclude uuid.UUID) (bool, error) {
	defer s.lock(ctx)()

	for _, a := range s.accounts {
		if a.UserID == userID && a.Name == name && a.DeletedAt == nil && a.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

// NumberExists reports whether any account, deleted or not, carries number.
func (s *Store) NumberExists(ctx context.Context, number string) (bool, error) {
	defer s.lock(ctx)()

	for _, a := range s.accounts {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

// --- domain.TransactionRepository ---

// CreateTransaction persists a posting. The method name avoids colliding
// with the account Create; see Transactions() for the interface adapter.
func (s *Store) createTransaction(ctx context.Context, tx *domain.Transaction) error {
	defer s.lock(ctx)()

	clone := *tx
	s.transactions[tx.AccountID] = append(s.transactions[tx.AccountID], &clone)
	return nil
}

func (s *Store) listByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	defer s.lock(ctx)()

	var out []*domain.Transaction
	for _, tx := range s.transactions[accountID] {
		if from != nil && tx.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && tx.CreatedAt.After(*to) {
			continue
		}
		clone := *tx
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) sumByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind, until time.Time, inclusive bool) (decimal.Decimal, error) {
	defer s.lock(ctx)()

	sum := decimal.Zero
	for _, tx := range s.transactions[accountID] {
		if tx.Kind != kind {
			continue
		}
		if tx.CreatedAt.After(until) {
			continue
		}
		if !inclusive && tx.CreatedAt.Equal(until) {
			continue
		}
		sum = sum.Add(tx.Amount)
	}
	return sum, nil
}

// transactionRepo adapts Store to domain.TransactionRepository.
type transactionRepo struct {
	s *Store
}

// Transactions returns the store's domain.TransactionRepository view.
func (s *Store) Transactions() domain.TransactionRepository {
	return transactionRepo{s: s}
}

func (r transactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.s.createTransaction(ctx, tx)
}

func (r transactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	return r.s.listByAccount(ctx, accountID, from, to)
}

func (r transactionRepo) SumByKind(ctx context.Context, accountID uuid.UUID, kind domain.TransactionKind, until time.Time, inclusive bool) (decimal.Decimal, error) {
	return r.s.sumByKind(ctx, accountID, kind, until, inclusive)
}

// --- domain.WebhookRepository ---

// webhookRepo adapts Store to domain.WebhookRepository.
type webhookRepo struct {
	s *Store
}

// Webhooks returns the store's domain.WebhookRepository view.
func (s *Store) Webhooks() domain.WebhookRepository {
	return webhookRepo{s: s}
}

func (r webhookRepo) Create(ctx context.Context, webhook *domain.Webhook) error {
	defer r.s.lock(ctx)()

	clone := *webhook
	r.s.webhooks[webhook.ID] = &clone
	return nil
}

func (r webhookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	defer r.s.lock(ctx)()

	w, ok := r.s.webhooks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r webhookRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	defer r.s.lock(ctx)()

	var out []*domain.Webhook
	for _, w := range r.s.webhooks {
		if w.UserID == userID && w.DeletedAt == nil {
			clone := *w
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r webhookRepo) ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error) {
	defer r.s.lock(ctx)()

	var out []*domain.Webhook
	for _, w := range r.s.webhooks {
		if w.Subscribed(event) {
			clone := *w
			out = append(out, &clone)
		}
	}
	return out, nil
}

// Delete soft-deletes a webhook. The stored value is replaced rather than
// mutated so snapshots taken for rollback stay intact.
func (r webhookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	w, ok := r.s.webhooks[id]
	if !ok || w.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	clone := *w
	clone.DeletedAt = &now
	r.s.webhooks[id] = &clone
	return nil
}
