// Command eva-extract runs the extraction worker: claim
// unprocessed raw posts under SKIP LOCKED and score each for brand, tag,
// sentiment, and intent using the configured primary extractor with a
// heuristic fallback.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eva-finance/internal/config"
	"eva-finance/internal/database"
	"eva-finance/internal/extract"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[EXTRACT] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[EXTRACT] configuration error: %v", err)
	}

	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("[EXTRACT] failed to connect to store: %v", err)
	}

	fallback := extract.NewHeuristic()

	var primary extract.Extractor
	if cfg.LLMProvider != "" && cfg.LLMAPIKey != "" {
		primary = extract.NewModelExtractor(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMProvider, cfg.LLMModel, cfg.LLMTimeout)
		log.Printf("[EXTRACT] primary extractor: %s (%s)", cfg.LLMProvider, cfg.LLMModel)
	} else {
		log.Println("[EXTRACT] no LLM provider configured, running heuristic-only")
	}

	pipeline := extract.NewPipeline(primary, fallback)
	worker := extract.NewWorker(db, pipeline, cfg.ExtractBatchSize, cfg.ExtractIdleSleep)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[EXTRACT] shutdown signal received")
		cancel()
	}()

	log.Printf("[EXTRACT] worker started, batch size %d", cfg.ExtractBatchSize)
	worker.Run(ctx)
	log.Println("[EXTRACT] stopped")
}
