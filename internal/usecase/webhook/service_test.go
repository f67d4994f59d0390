package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finbank/ledger-backend/internal/domain"
)

// MockWebhookRepository is a mock implementation of WebhookRepository for testing
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) Create(ctx context.Context, webhook *domain.Webhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

func (m *MockWebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestRegister(t *testing.T) {
	repo := new(MockWebhookRepository)
	service := NewService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("Create", ctx, mock.MatchedBy(func(w *domain.Webhook) bool {
		return w.UserID == userID && w.Active && len(w.Events) == 2
	})).Return(nil).Once()

	webhook, err := service.Register(ctx, RegisterInput{
		UserID: userID,
		URL:    "https://example.com/hooks",
		Events: []string{domain.EventTransferCompleted, domain.EventTransactionCreated},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, webhook.ID)

	repo.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	repo := new(MockWebhookRepository)
	service := NewService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{
			name:  "relative URL",
			input: RegisterInput{UserID: uuid.New(), URL: "/hooks", Events: []string{domain.EventAccountCreated}},
		},
		{
			name:  "no events",
			input: RegisterInput{UserID: uuid.New(), URL: "https://example.com", Events: nil},
		},
		{
			name:  "unknown event name",
			input: RegisterInput{UserID: uuid.New(), URL: "https://example.com", Events: []string{"account.exploded"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(ctx, tt.input)
			assert.Error(t, err)
		})
	}

	repo.AssertNotCalled(t, "Create")
}

func TestDelete_OwnerCheck(t *testing.T) {
	repo := new(MockWebhookRepository)
	service := NewService(repo)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	webhook := &domain.Webhook{
		ID:        uuid.New(),
		UserID:    owner,
		URL:       "https://example.com/hooks",
		Events:    []string{domain.EventAccountCreated},
		Active:    true,
		CreatedAt: time.Now(),
	}

	repo.On("GetByID", ctx, webhook.ID).Return(webhook, nil)

	err := service.Delete(ctx, stranger, webhook.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "Delete")

	repo.On("Delete", ctx, webhook.ID).Return(nil).Once()
	require.NoError(t, service.Delete(ctx, owner, webhook.ID))

	repo.AssertExpectations(t)
}

func TestDelete_AlreadyDeleted(t *testing.T) {
	repo := new(MockWebhookRepository)
	service := NewService(repo)
	ctx := context.Background()

	owner := uuid.New()
	now := time.Now()
	webhook := &domain.Webhook{
		ID:        uuid.New(),
		UserID:    owner,
		URL:       "https://example.com/hooks",
		Events:    []string{domain.EventAccountCreated},
		CreatedAt: now.Add(-time.Hour),
		DeletedAt: &now,
	}

	repo.On("GetByID", ctx, webhook.ID).Return(webhook, nil).Once()

	err := service.Delete(ctx, owner, webhook.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "Delete")
}

func TestSubscribersFor(t *testing.T) {
	repo := new(MockWebhookRepository)
	service := NewService(repo)
	ctx := context.Background()

	subscribed := []*domain.Webhook{
		{ID: uuid.New(), URL: "https://a.example.com", Events: []string{domain.EventTransferCompleted}, Active: true},
	}
	repo.On("ListActiveForEvent", ctx, domain.EventTransferCompleted).Return(subscribed, nil).Once()

	got, err := service.SubscribersFor(ctx, domain.EventTransferCompleted)
	require.NoError(t, err)
	assert.Equal(t, subscribed, got)

	repo.AssertExpectations(t)
}
