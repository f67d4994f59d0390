package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/finbank/ledger-backend/internal/domain"
)

// webhookRepository implements domain.WebhookRepository
type webhookRepository struct {
	db *DB
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *DB) domain.WebhookRepository {
	return &webhookRepository{db: db}
}

const webhookColumns = `id, user_id, url, events, active, created_at, deleted_at`

// Create persists a new webhook registration
func (r *webhookRepository) Create(ctx context.Context, webhook *domain.Webhook) error {
	query := `
		INSERT INTO webhooks (id, user_id, url, events, active, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		webhook.ID,
		webhook.UserID,
		webhook.URL,
		pq.Array(webhook.Events),
		webhook.Active,
		webhook.CreatedAt,
		webhook.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	return nil
}

// GetByID retrieves a webhook by its identifier, soft-deleted or not
func (r *webhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	webhook, err := scanWebhook(r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}

	return webhook, nil
}

// ListByUser retrieves the owner's non-deleted webhooks
func (r *webhookRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	return r.list(ctx, query, userID)
}

// ListActiveForEvent retrieves every active, non-deleted webhook subscribed
// to the event
func (r *webhookRepository) ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE active AND deleted_at IS NULL AND $1 = ANY(events)`
	return r.list(ctx, query, event)
}

// Delete soft-deletes a webhook registration. Fails with domain.ErrNotFound
// if the webhook is absent or already deleted.
func (r *webhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE webhooks SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *webhookRepository) list(ctx context.Context, query string, arg interface{}) ([]*domain.Webhook, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*domain.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhooks: %w", err)
	}

	return webhooks, nil
}

func scanWebhook(scan func(dest ...interface{}) error) (*domain.Webhook, error) {
	var (
		webhook   domain.Webhook
		deletedAt sql.NullTime
	)

	err := scan(
		&webhook.ID,
		&webhook.UserID,
		&webhook.URL,
		pq.Array(&webhook.Events),
		&webhook.Active,
		&webhook.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		t := deletedAt.Time
		webhook.DeletedAt = &t
	}

	return &webhook, nil
}
