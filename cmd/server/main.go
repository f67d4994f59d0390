package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbank/ledger-backend/internal/adapter/event/rabbitmq"
	"github.com/finbank/ledger-backend/internal/adapter/repository/postgres"
	"github.com/finbank/ledger-backend/internal/config"
	"github.com/finbank/ledger-backend/internal/domain"
	"github.com/finbank/ledger-backend/internal/usecase/ledger"
	"github.com/finbank/ledger-backend/internal/usecase/statement"
	"github.com/finbank/ledger-backend/internal/usecase/transfer"
	"github.com/finbank/ledger-backend/internal/usecase/webhook"
)

// Application is the assembled ledger core, ready for an API layer to embed.
type Application struct {
	Ledger    *ledger.Service
	Transfer  *transfer.Service
	Statement *statement.Service
	Webhook   *webhook.Service
}

func main() {
	cfg := config.Load()

	// Wait briefly so a freshly started Postgres container is reachable.
	time.Sleep(2 * time.Second)

	db, err := postgres.NewDB(cfg.Database.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Event publisher is optional: without a broker URL the ledger still
	// works, it just emits nothing.
	var events domain.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		events = publisher
	}

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)
	txManager := postgres.NewTxManager(db)

	app := &Application{
		Ledger:    ledger.NewService(accountRepo, transactionRepo, txManager, events),
		Transfer:  transfer.NewService(accountRepo, transactionRepo, txManager, events),
		Statement: statement.NewService(accountRepo, transactionRepo),
		Webhook:   webhook.NewService(webhookRepo),
	}
	_ = app // the API layer (external to this core) drives these services

	log.Println("Ledger core ready")

	waitForShutdown()
}

// waitForShutdown blocks until SIGTERM or SIGINT.
func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)
}
