package domain

import (
	"context"
	"time"
)

// Domain event names emitted at the notifier boundary.
// Exactly one event is emitted per mutating operation outcome.
const (
	EventAccountCreated     = "account.created"
	EventAccountUpdated     = "account.updated"
	EventAccountDeleted     = "account.deleted"
	EventTransactionCreated = "transaction.created"
	EventTransactionFailed  = "transaction.failed"
	EventTransferCompleted  = "transfer.completed"
	EventTransferFailed     = "transfer.failed"
)

// EventNames lists every event a webhook may subscribe to.
var EventNames = []string{
	EventAccountCreated,
	EventAccountUpdated,
	EventAccountDeleted,
	EventTransactionCreated,
	EventTransactionFailed,
	EventTransferCompleted,
	EventTransferFailed,
}

// Event is a domain event carried to the external notifier.
// Data holds the affected entity or entities.
type Event struct {
	Name      string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(name string, data interface{}) Event {
	return Event{
		Name:      name,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
// Delivery to individual subscriber URLs is the notifier's responsibility,
// not the ledger's.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
