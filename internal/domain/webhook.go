package domain

import (
	"errors"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Webhook is a subscriber registration at the notifier boundary: a URL plus
// the set of event names its owner wants forwarded there. The ledger only
// keeps the registry; delivering to the URL is the dispatcher's job.
type Webhook struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	URL       string
	Events    []string
	Active    bool
	CreatedAt time.Time
	DeletedAt *time.Time // soft delete, mirroring accounts
}

// Validate ensures the webhook adheres to domain rules
func (w *Webhook) Validate() error {
	u, err := url.Parse(w.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("webhook URL must be absolute")
	}

	if len(w.Events) == 0 {
		return errors.New("webhook must subscribe to at least one event")
	}

	for _, name := range w.Events {
		if !slices.Contains(EventNames, name) {
			return errors.New("unknown event name: " + name)
		}
	}

	return nil
}

// Deleted reports whether the webhook has been soft-deleted.
func (w *Webhook) Deleted() bool {
	return w.DeletedAt != nil
}

// Subscribed reports whether the webhook wants the named event.
func (w *Webhook) Subscribed(event string) bool {
	return w.Active && !w.Deleted() && slices.Contains(w.Events, event)
}
