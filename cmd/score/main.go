// Command eva-score runs the aggregation, trigger, scoring, and draft-build
// stages once per interval: roll up candidate signals,
// emit TAG_ELEVATED/BRAND_DIVERGENCE triggers, score every candidate, and
// build a recommendation draft for each newly-eligible signal event.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eva-finance/internal/aggregate"
	"eva-finance/internal/config"
	"eva-finance/internal/database"
	"eva-finance/internal/models"
	"eva-finance/internal/recommend"
	"eva-finance/internal/scoring"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const scoreCycleInterval = 15 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[SCORE] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[SCORE] configuration error: %v", err)
	}

	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("[SCORE] failed to connect to store: %v", err)
	}

	validatorEnabled := cfg.TrendsEnabled && cfg.TrendsBaseURL != ""
	validator := scoring.NewValidator(cfg.TrendsBaseURL, cfg.TrendsAPIKey, validatorEnabled, time.Duration(cfg.TrendsCacheHours)*time.Hour)
	scoreCfg := scoring.Config{
		Weights: scoring.Weights{
			Intent:       cfg.WeightIntent,
			Acceleration: cfg.WeightAcceleration,
			Spread:       cfg.WeightSpread,
			Baseline:     cfg.WeightBaseline,
			Suppression:  cfg.WeightSuppression,
		},
		Gates: scoring.Gates{
			Intent:      cfg.GateIntent,
			Suppression: cfg.GateSuppression,
			Spread:      cfg.GateSpread,
		},
		Bands: scoring.Bands{
			High:      cfg.BandHigh,
			Watchlist: cfg.BandWatchlist,
		},
		BaselineLookbackDays: cfg.BaselineLookbackDays,
		MinValidationConf:    cfg.TrendsMinConfidence,
	}
	scorer := scoring.NewScorer(db, scoreCfg, validator)
	triggers := aggregate.NewTriggerEmitter(db)
	builder := recommend.NewBuilder(db, cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[SCORE] shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(scoreCycleInterval)
	defer ticker.Stop()

	runCycle(db, triggers, scorer, builder)
	for {
		select {
		case <-ctx.Done():
			log.Println("[SCORE] stopped")
			return
		case <-ticker.C:
			runCycle(db, triggers, scorer, builder)
		}
	}
}

// runCycle runs the full aggregate -> trigger -> score -> draft chain for
// today. Each stage logs and continues past its own
// failure rather than blocking the remaining stages, since they operate on
// independent rows.
func runCycle(db *gorm.DB, triggers *aggregate.TriggerEmitter, scorer *scoring.Scorer, builder *recommend.Builder) {
	day := time.Now().UTC().Truncate(24 * time.Hour)

	if n, err := triggers.EmitTagElevated(day); err != nil {
		log.Printf("[SCORE] tag-elevated triggers failed: %v", err)
	} else if n > 0 {
		log.Printf("[SCORE] emitted %d TAG_ELEVATED event(s)", n)
	}

	if n, err := triggers.EmitBrandDivergence(day); err != nil {
		log.Printf("[SCORE] brand-divergence triggers failed: %v", err)
	} else if n > 0 {
		log.Printf("[SCORE] emitted %d BRAND_DIVERGENCE event(s)", n)
	}

	if err := triggers.UpdateBehaviorStates(day); err != nil {
		log.Printf("[SCORE] behavior-state update failed: %v", err)
	}

	result, err := scorer.RunOnce(day)
	if err != nil {
		log.Printf("[SCORE] scoring run failed: %v", err)
		return
	}
	log.Printf("[SCORE] scored %d/%d candidates (suppressed=%d watchlist=%d high=%d, validator consulted=%d pending=%d)",
		result.Scored, result.Candidates, result.Suppressed, result.Watchlisted, result.High,
		result.ValidatorConsulted, result.ValidatorPending)

	buildDrafts(db, builder, day)
}

// buildDrafts builds a recommendation draft for every RECOMMENDATION_ELIGIBLE
// event from today that doesn't have one yet. BuildForEvent is itself
// idempotent, so re-running this cycle never duplicates a draft.
func buildDrafts(db *gorm.DB, builder *recommend.Builder, day time.Time) {
	var events []models.SignalEvent
	if err := db.Where("kind = ? AND day = ?", models.EventRecommendationEligible, day).Find(&events).Error; err != nil {
		log.Printf("[SCORE] failed to list eligible events: %v", err)
		return
	}
	for _, event := range events {
		if _, err := builder.BuildForEvent(event); err != nil {
			log.Printf("[SCORE] draft build failed for event %d: %v", event.ID, err)
		}
	}
}
