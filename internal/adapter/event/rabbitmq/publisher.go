// Package rabbitmq publishes ledger domain events to a RabbitMQ topic
// exchange. The routing key is the event name (account.created,
// transfer.completed, ...), so subscribers bind with whatever pattern
// granularity they need.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/finbank/ledger-backend/internal/domain"
)

// Config holds RabbitMQ connection configuration
type Config struct {
	URL      string
	Exchange string
}

// Publisher implements domain.EventPublisher over RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  Config
}

// NewPublisher connects to RabbitMQ and declares the durable topic exchange.
func NewPublisher(cfg Config) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Printf("RabbitMQ publisher initialized: exchange=%s", cfg.Exchange)

	return &Publisher{
		conn:    conn,
		channel: channel,
		config:  cfg,
	}, nil
}

// Publish sends the event to the exchange with the event name as routing key.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.config.Exchange, // exchange
		event.Name,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Name, err)
	}

	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return p.conn.Close()
}
