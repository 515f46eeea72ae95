// Package main is the entry point for the Aurum background worker.
// It drains the outbox into stock register movements and runs
// housekeeping for expired tokens and idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"aurum/internal/domain/reconcile"
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/domain/registers/metalstock"
	"aurum/internal/infrastructure/storage/postgres"
	"aurum/internal/infrastructure/storage/postgres/auth_repo"
	"aurum/internal/infrastructure/storage/postgres/document_repo"
	"aurum/internal/infrastructure/storage/postgres/register_repo"
	"aurum/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting aurum worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	// Reconciliation processor over the stock registers
	processor := reconcile.NewProcessor(
		document_repo.NewBillRepo(txManager),
		document_repo.NewPurchaseRepo(txManager),
		metalstock.NewService(register_repo.NewMetalStockRepo(txManager)),
		itemstock.NewService(register_repo.NewItemStockRepo(txManager)),
		postgres.NewProcessedEventStore(txManager),
		txManager,
	)

	relay := postgres.NewOutboxRelay(
		pool.Unwrap(),
		getEnvInt("OUTBOX_BATCH_SIZE", 100),
		&reconcileHandler{processor: processor},
	)

	worker := &Worker{
		relay:        relay,
		idempotency:  postgres.NewIdempotencyStore(pool, txManager, getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute)),
		tokens:       auth_repo.NewTokenRepo(txManager),
		pollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		log:          log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// reconcileHandler adapts the outbox relay to the reconciliation processor.
type reconcileHandler struct {
	processor *reconcile.Processor
}

func (h *reconcileHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	return h.processor.HandleEvent(ctx, msg.ID, msg.EventType, msg.Payload)
}

// Worker drains the outbox and runs periodic housekeeping.
type Worker struct {
	relay        *postgres.OutboxRelay
	idempotency  *postgres.IdempotencyStore
	tokens       *auth_repo.TokenRepo
	pollInterval time.Duration
	log          *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	processed, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if processed > 0 {
		w.log.Debugw("processed outbox batch", "count", processed)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to dlq failed", "error", err)
	} else if moved > 0 {
		w.log.Infow("moved failed messages to dlq", "count", moved)
	}

	if removed, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}

	if removed, err := w.tokens.CleanupExpiredTokens(ctx); err != nil {
		w.log.Errorw("token cleanup failed", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up expired tokens", "count", removed)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
