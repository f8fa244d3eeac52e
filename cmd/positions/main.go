// Command eva-positions runs the paper-trading lifecycle: open an entry
// for each newly RECOMMENDATION_ELIGIBLE signal, and refresh
// every open position's price, closing on profit-target, stop-loss, or
// time-exit.
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
	"eva-finance/internal/positions"

	"github.com/joho/godotenv"
)

const positionsCycleInterval = 1 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[POSITIONS] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[POSITIONS] configuration error: %v", err)
	}

	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("[POSITIONS] failed to connect to store: %v", err)
	}

	prices := positions.NewMarketPriceClient(cfg.MarketPriceBaseURL, cfg.MarketPriceAPIKey)
	tickerLookup := positions.NewTickerLookupClient(cfg.TickerLookupBaseURL, cfg.TickerLookupAPIKey)
	manager := positions.NewManager(db, prices, tickerLookup)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[POSITIONS] shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(positionsCycleInterval)
	defer ticker.Stop()

	runCycle(manager)
	for {
		select {
		case <-ctx.Done():
			log.Println("[POSITIONS] stopped")
			return
		case <-ticker.C:
			runCycle(manager)
		}
	}
}

func runCycle(manager *positions.Manager) {
	opened, err := manager.OpenEntries()
	if err != nil {
		log.Printf("[POSITIONS] open-entries failed: %v", err)
	} else if opened > 0 {
		log.Printf("[POSITIONS] opened %d new position(s)", opened)
	}

	result, err := manager.RefreshAndCloseOpen()
	if err != nil {
		log.Printf("[POSITIONS] refresh failed: %v", err)
		return
	}
	log.Printf("[POSITIONS] refreshed %d open position(s), closed %d", result.Refreshed, result.Closed)
}
