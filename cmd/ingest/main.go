// Command eva-ingest runs the ingestion conductor: poll the configured
// community feeds on a fixed interval and admit surviving posts.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eva-finance/internal/config"
	"eva-finance/internal/ingest"

	"github.com/joho/godotenv"
)

// Per-call HTTP timeouts; the cycle interval governs how often the
// conductor polls, not how long a single request may hang.
const (
	feedTimeout      = 15 * time.Second
	admissionTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INGEST] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[INGEST] configuration error: %v", err)
	}

	feedClient := ingest.NewHTTPFeedClient(cfg.IngestFeedBaseURL, feedTimeout)
	admission := ingest.NewAdmissionClient(cfg.AdmissionURL, admissionTimeout)
	conductor := ingest.NewConductor(feedClient, admission, cfg.IngestFeeds, cfg.IngestPostLimit, cfg.IngestPaceDelay)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[INGEST] shutdown signal received")
		cancel()
	}()

	log.Printf("[INGEST] conductor started, polling %d feed(s) every %v", len(cfg.IngestFeeds), cfg.IngestCycleInterval)
	conductor.Run(ctx, cfg.IngestCycleInterval)
	log.Println("[INGEST] stopped")
}
