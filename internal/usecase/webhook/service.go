// Package webhook keeps the registry of notifier subscriptions: which URLs
// want which domain events. Delivering events to those URLs is the external
// dispatcher's job, not the ledger's.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbank/ledger-backend/internal/domain"
)

// RegisterInput represents the input for registering a webhook
type RegisterInput struct {
	UserID uuid.UUID
	URL    string
	Events []string
}

// Service manages webhook registrations
type Service struct {
	webhooks domain.WebhookRepository
}

// NewService creates a new webhook Service instance
func NewService(webhooks domain.WebhookRepository) *Service {
	return &Service{webhooks: webhooks}
}

// Register validates and stores a new webhook subscription.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.Webhook, error) {
	webhook := &domain.Webhook{
		ID:        uuid.New(),
		UserID:    input.UserID,
		URL:       input.URL,
		Events:    input.Events,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := webhook.Validate(); err != nil {
		return nil, err
	}

	if err := s.webhooks.Create(ctx, webhook); err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return webhook, nil
}

// List retrieves all webhooks registered by the owner.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	return s.webhooks.ListByUser(ctx, userID)
}

// Delete soft-deletes a webhook. Fails with domain.ErrNotFound when the
// webhook doesn't exist, was already deleted, or belongs to another owner.
func (s *Service) Delete(ctx context.Context, userID, webhookID uuid.UUID) error {
	webhook, err := s.webhooks.GetByID(ctx, webhookID)
	if err != nil {
		return err
	}
	if webhook.UserID != userID || webhook.Deleted() {
		return domain.ErrNotFound
	}

	return s.webhooks.Delete(ctx, webhookID)
}

// SubscribersFor retrieves the active webhooks subscribed to the event, for
// the external dispatcher to fan out to.
func (s *Service) SubscribersFor(ctx context.Context, event string) ([]*domain.Webhook, error) {
	return s.webhooks.ListActiveForEvent(ctx, event)
}
