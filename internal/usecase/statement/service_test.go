package statement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbank/ledger-backend/internal/adapter/repository/memory"
	"github.com/finbank/ledger-backend/internal/domain"
	"github.com/finbank/ledger-backend/internal/usecase/ledger"
	"github.com/finbank/ledger-backend/internal/usecase/transfer"
)

type fixture struct {
	store     *memory.Store
	ledger    *ledger.Service
	transfer  *transfer.Service
	statement *Service
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:     store,
		ledger:    ledger.NewService(store, store.Transactions(), store, nil),
		transfer:  transfer.NewService(store, store.Transactions(), store, nil),
		statement: NewService(store, store.Transactions()),
	}
}

func (f *fixture) open(t *testing.T, balance int64) *domain.Account {
	t.Helper()

	account, err := f.ledger.OpenAccount(context.Background(), ledger.OpenAccountInput{
		UserID:         uuid.New(),
		Name:           "Account " + uuid.NewString(),
		Type:           domain.AccountTypePersonal,
		Currency:       domain.CurrencyUSD,
		InitialBalance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) post(t *testing.T, accountID uuid.UUID, kind domain.TransactionKind, amount int64) {
	t.Helper()

	_, _, err := f.ledger.Post(context.Background(), ledger.PostInput{
		AccountID: accountID,
		Kind:      kind,
		Amount:    decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
}

// The derived and the live balance must agree whenever no posting is in
// flight, whatever mix of posts and transfers produced the history.
func TestBalanceAsOf_MatchesLiveBalance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 1000)
	b := f.open(t, 250)

	f.post(t, a.ID, domain.TransactionKindDebit, 300)
	f.post(t, a.ID, domain.TransactionKindCredit, 200)
	f.post(t, b.ID, domain.TransactionKindCredit, 75)

	_, err := f.transfer.Transfer(ctx, transfer.Input{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        decimal.NewFromInt(150),
		Description:   "settle up",
	})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		account, err := f.store.GetByID(ctx, id)
		require.NoError(t, err)

		derived, err := f.statement.BalanceAsOf(ctx, id, time.Now(), true)
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(derived),
			"live %s and derived %s must agree", account.Balance, derived)
	}
}

func TestBalanceAsOf_Scenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 1000)

	f.post(t, a.ID, domain.TransactionKindDebit, 300)
	f.post(t, a.ID, domain.TransactionKindCredit, 200)

	derived, err := f.statement.BalanceAsOf(ctx, a.ID, time.Now(), true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(900).Equal(derived), "expected 900, got %s", derived)
}

func TestBalanceAsOf_BeforeAnyPosting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 500)
	f.post(t, a.ID, domain.TransactionKindDebit, 100)

	// Before the account even existed the derived balance is the initial
	// balance: there is nothing to sum.
	past := time.Now().Add(-time.Hour)
	derived, err := f.statement.BalanceAsOf(ctx, a.ID, past, true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(derived))
}

func TestBalanceAsOf_InclusiveBoundary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 0)
	f.post(t, a.ID, domain.TransactionKindCredit, 40)

	history, err := f.store.Transactions().ListByAccount(ctx, a.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, history, 1)
	at := history[0].CreatedAt

	inclusive, err := f.statement.BalanceAsOf(ctx, a.ID, at, true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(inclusive), "inclusive boundary counts the posting")

	exclusive, err := f.statement.BalanceAsOf(ctx, a.ID, at, false)
	require.NoError(t, err)
	assert.True(t, exclusive.IsZero(), "exclusive boundary skips the posting")
}

func TestBalanceAsOf_SurvivesAccountClose(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 100)
	f.post(t, a.ID, domain.TransactionKindCredit, 60)
	require.NoError(t, f.ledger.CloseAccount(ctx, a.ID))

	derived, err := f.statement.BalanceAsOf(ctx, a.ID, time.Now(), true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(160).Equal(derived))
}

func TestStatement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 1000)

	f.post(t, a.ID, domain.TransactionKindDebit, 300) // before the period

	periodStart := time.Now()
	f.post(t, a.ID, domain.TransactionKindCredit, 200)
	f.post(t, a.ID, domain.TransactionKindDebit, 50)
	periodEnd := time.Now()

	f.post(t, a.ID, domain.TransactionKindCredit, 999) // after the period

	stmt, err := f.statement.Statement(ctx, a.ID, periodStart, periodEnd)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(700).Equal(stmt.OpeningBalance), "opening = balance entering the period, got %s", stmt.OpeningBalance)
	assert.True(t, decimal.NewFromInt(850).Equal(stmt.ClosingBalance), "closing = balance leaving the period, got %s", stmt.ClosingBalance)
	require.Len(t, stmt.Transactions, 2)
	// Newest first.
	assert.Equal(t, domain.TransactionKindDebit, stmt.Transactions[0].Kind)
	assert.Equal(t, domain.TransactionKindCredit, stmt.Transactions[1].Kind)
}

func TestStatement_InvertedPeriod(t *testing.T) {
	f := newFixture()
	a := f.open(t, 0)

	now := time.Now()
	_, err := f.statement.Statement(context.Background(), a.ID, now, now.Add(-time.Minute))
	assert.Error(t, err)
}

func TestStatement_UnknownAccount(t *testing.T) {
	f := newFixture()

	_, err := f.statement.BalanceAsOf(context.Background(), uuid.New(), time.Now(), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactions_RangeFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 100)

	f.post(t, a.ID, domain.TransactionKindCredit, 1)
	cutoff := time.Now()
	f.post(t, a.ID, domain.TransactionKindCredit, 2)

	all, err := f.statement.Transactions(ctx, a.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	after, err := f.statement.Transactions(ctx, a.ID, &cutoff, nil)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, decimal.NewFromInt(2).Equal(after[0].Amount))
}

// countingAccountRepo counts account fetches so tests can pin how many
// round trips an operation costs.
type countingAccountRepo struct {
	domain.AccountRepository
	gets int
}

func (r *countingAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.gets++
	return r.AccountRepository.GetByID(ctx, id)
}

func TestStatement_FetchesAccountOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t, 700)

	periodStart := time.Now().Add(-time.Minute)
	f.post(t, a.ID, domain.TransactionKindCredit, 150)

	repo := &countingAccountRepo{AccountRepository: f.store}
	service := NewService(repo, f.store.Transactions())

	stmt, err := service.Statement(ctx, a.ID, periodStart, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets, "a statement needs a single account fetch")
	assert.True(t, decimal.NewFromInt(700).Equal(stmt.OpeningBalance))
	assert.True(t, decimal.NewFromInt(850).Equal(stmt.ClosingBalance))
}
