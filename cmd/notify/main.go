// Command eva-notify runs the notification delivery worker: claim
// approved, undelivered drafts under SKIP LOCKED and push them to the
// configured gateway with bounded retry.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eva-finance/internal/config"
	"eva-finance/internal/database"
	"eva-finance/internal/notify"

	"github.com/joho/godotenv"
)

const notifierIdleSleep = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[NOTIFY] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[NOTIFY] configuration error: %v", err)
	}

	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("[NOTIFY] failed to connect to store: %v", err)
	}

	notifier := notify.NewNotifier(db, cfg.PushGatewayURL, cfg.PushGatewayAPIKey, cfg.NotifierTimeout, cfg.NotifierBatchSize, cfg.NotifierMaxAttempts)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[NOTIFY] shutdown signal received")
		cancel()
	}()

	log.Printf("[NOTIFY] worker started, batch size %d, max attempts %d", cfg.NotifierBatchSize, cfg.NotifierMaxAttempts)
	notify.Run(ctx, notifier, notifierIdleSleep)
	log.Println("[NOTIFY] stopped")
}
