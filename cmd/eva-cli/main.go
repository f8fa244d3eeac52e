// Command eva-cli is the operator tool: maintain the brand ticker map,
// trigger a scoring pass on demand, probe the external validator, reset a
// poisoned draft, and export the paper-trading ledger. Subcommands are
// flat flag verbs; the operator surface is too small for a command
// framework.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"eva-finance/internal/aggregate"
	"eva-finance/internal/config"
	"eva-finance/internal/database"
	"eva-finance/internal/models"
	"eva-finance/internal/recommend"
	"eva-finance/internal/scoring"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Exit codes: 0 success, 1 user error, 2 store error, 3 external provider
// error.
const (
	exitUserError     = 1
	exitStoreError    = 2
	exitProviderError = 3
)

func fatalf(code int, format string, args ...interface{}) {
	log.Printf(format, args...)
	os.Exit(code)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUserError)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("[CLI] no .env file found, reading configuration from the environment")
	}
	cfg, err := config.Load()
	if err != nil {
		fatalf(exitUserError, "[CLI] configuration error: %v", err)
	}
	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		fatalf(exitStoreError, "[CLI] failed to connect to store: %v", err)
	}

	switch os.Args[1] {
	case "list-unmapped-brands":
		cmdListUnmappedBrands(db)
	case "map-brand":
		cmdMapBrand(db, os.Args[2:])
	case "score-now":
		cmdScoreNow(db, cfg, os.Args[2:])
	case "validate-brand":
		cmdValidateBrand(cfg, os.Args[2:])
	case "reset-retries":
		cmdResetRetries(db, os.Args[2:])
	case "export-paper-positions":
		cmdExportPaperPositions(db, os.Args[2:])
	default:
		usage()
		os.Exit(exitUserError)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `eva-cli <command> [flags]

Commands:
  list-unmapped-brands            list candidate brands with no ticker mapping
  map-brand <brand> <ticker>      add or update a brand -> ticker mapping
      [-exchange NASDAQ] [-parent "Parent Inc"] [-material]
  score-now [-day 2026-08-04]     run one scoring pass immediately
  validate-brand <brand>          probe the external validator for one brand
  reset-retries <draft-id>        clear attempts/last_error on a stuck draft
  export-paper-positions [-out ledger.xlsx] [-status open]
                                  export the paper-position ledger to xlsx`)
}

// cmdListUnmappedBrands surfaces distinct scored brands that have no row
// in brand_ticker_map, for operator triage.
func cmdListUnmappedBrands(db *gorm.DB) {
	var brands []string
	err := db.Model(&models.ConfidenceScore{}).
		Distinct("brand").
		Where("LOWER(brand) NOT IN (SELECT normalized_brand FROM brand_ticker_map)").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	if err != nil {
		fatalf(exitStoreError, "[CLI] query failed: %v", err)
	}
	if len(brands) == 0 {
		fmt.Println("no unmapped brands")
		return
	}
	for _, b := range brands {
		fmt.Println(b)
	}
}

// cmdMapBrand inserts or updates the operator-curated brand -> ticker
// mapping, the sole source of materiality.
func cmdMapBrand(db *gorm.DB, args []string) {
	fs := flag.NewFlagSet("map-brand", flag.ExitOnError)
	exchange := fs.String("exchange", "", "listing exchange, e.g. NASDAQ")
	parent := fs.String("parent", "", "parent company name")
	material := fs.Bool("material", false, "mark this brand as materially linked to its ticker")
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: eva-cli map-brand <brand> <ticker> [flags]")
		os.Exit(exitUserError)
	}
	entry := models.BrandTickerMap{
		Brand:         fs.Arg(0),
		Ticker:        fs.Arg(1),
		Exchange:      *exchange,
		ParentCompany: *parent,
		Material:      *material,
	}
	entry.Normalize()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized_brand"}},
		DoUpdates: clause.AssignmentColumns([]string{"brand", "ticker", "exchange", "parent_company", "material"}),
	}).Create(&entry).Error
	if err != nil {
		fatalf(exitStoreError, "[CLI] map-brand failed: %v", err)
	}
	fmt.Printf("mapped %s -> %s (material=%v)\n", entry.Brand, entry.Ticker, entry.Material)
}

// cmdScoreNow runs one scoring pass for the given day (default today),
// mirroring cmd/score's cycle body for ad hoc operator use.
func cmdScoreNow(db *gorm.DB, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("score-now", flag.ExitOnError)
	dayFlag := fs.String("day", "", "day to score, YYYY-MM-DD (default: today)")
	fs.Parse(args)

	day := time.Now().UTC()
	if *dayFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dayFlag)
		if err != nil {
			fatalf(exitUserError, "[CLI] invalid -day: %v", err)
		}
		day = parsed
	}
	day = day.Truncate(24 * time.Hour)

	triggers := aggregate.NewTriggerEmitter(db)
	if _, err := triggers.EmitTagElevated(day); err != nil {
		log.Printf("[CLI] tag-elevated triggers failed: %v", err)
	}
	if _, err := triggers.EmitBrandDivergence(day); err != nil {
		log.Printf("[CLI] brand-divergence triggers failed: %v", err)
	}
	if err := triggers.UpdateBehaviorStates(day); err != nil {
		log.Printf("[CLI] behavior-state update failed: %v", err)
	}

	validatorEnabled := cfg.TrendsEnabled && cfg.TrendsBaseURL != ""
	validator := scoring.NewValidator(cfg.TrendsBaseURL, cfg.TrendsAPIKey, validatorEnabled, time.Duration(cfg.TrendsCacheHours)*time.Hour)
	scorer := scoring.NewScorer(db, scoring.Config{
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
	}, validator)

	result, err := scorer.RunOnce(day)
	if err != nil {
		fatalf(exitStoreError, "[CLI] scoring failed: %v", err)
	}
	fmt.Printf("scored %d/%d candidates: suppressed=%d watchlist=%d high=%d events_emitted=%d\n",
		result.Scored, result.Candidates, result.Suppressed, result.Watchlisted, result.High, result.EventsEmitted)

	var events []models.SignalEvent
	if err := db.Where("kind = ? AND day = ?", models.EventRecommendationEligible, day).Find(&events).Error; err != nil {
		fatalf(exitStoreError, "[CLI] failed to list eligible events: %v", err)
	}
	builder := recommend.NewBuilder(db, cfg.DataDir)
	for _, event := range events {
		if _, err := builder.BuildForEvent(event); err != nil {
			log.Printf("[CLI] draft build failed for event %d: %v", event.ID, err)
		}
	}
}

// cmdValidateBrand probes the external search-interest validator directly,
// bypassing the confidence threshold gate.
func cmdValidateBrand(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: eva-cli validate-brand <brand>")
		os.Exit(exitUserError)
	}
	validatorEnabled := cfg.TrendsEnabled && cfg.TrendsBaseURL != ""
	validator := scoring.NewValidator(cfg.TrendsBaseURL, cfg.TrendsAPIKey, validatorEnabled, time.Duration(cfg.TrendsCacheHours)*time.Hour)
	if !validator.Enabled() {
		fmt.Println("validator disabled (TRENDS_ENABLED=false or TRENDS_BASE_URL unset)")
		return
	}
	result := validator.Validate(args[0])
	fmt.Printf("status=%s direction=%s interest=%.1f boost=%.3f\n",
		result.Status, result.TrendDirection, result.SearchInterest, result.ConfidenceBoost)
	if result.Status == models.ValidationPending {
		os.Exit(exitProviderError)
	}
}

// cmdResetRetries clears attempts and last_error on a draft so the notifier
// can claim it again, for operator recovery of a draft stuck at the
// attempts cap.
func cmdResetRetries(db *gorm.DB, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: eva-cli reset-retries <draft-id>")
		os.Exit(exitUserError)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fatalf(exitUserError, "[CLI] invalid draft id: %v", err)
	}
	err = db.Model(&models.RecommendationDraft{}).Where("id = ?", id).
		Updates(map[string]interface{}{"attempts": 0, "last_error": ""}).Error
	if err != nil {
		fatalf(exitStoreError, "[CLI] reset-retries failed: %v", err)
	}
	fmt.Printf("draft %d reset\n", id)
}

// cmdExportPaperPositions renders the paper-position ledger to an .xlsx
// workbook via excelize: the read-only operator API serves JSON, but the
// ledger is a natural spreadsheet artifact for performance review.
func cmdExportPaperPositions(db *gorm.DB, args []string) {
	fs := flag.NewFlagSet("export-paper-positions", flag.ExitOnError)
	out := fs.String("out", "paper-positions.xlsx", "output .xlsx path")
	status := fs.String("status", "", "filter by status: open or closed")
	fs.Parse(args)

	q := db.Order("entry_date ASC")
	if *status != "" {
		q = q.Where("status = ?", *status)
	}
	var rows []models.PaperPosition
	if err := q.Find(&rows).Error; err != nil {
		fatalf(exitStoreError, "[CLI] query failed: %v", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[CLI] warning: failed closing workbook: %v", err)
		}
	}()

	const sheet = "Positions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"ID", "Brand", "Tag", "Ticker", "Entry Date", "Entry Price",
		"Current Price", "Size ($)", "Status", "Exit Date", "Exit Price",
		"Exit Reason", "Return %", "Return $", "Days Held",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	const dateLayout = "2006-01-02"
	for i, p := range rows {
		row := i + 2
		values := []interface{}{
			p.ID, p.Brand, p.Tag, p.Ticker, p.EntryDate.Format(dateLayout), p.EntryPrice,
			p.CurrentPrice, p.SizeDollars, string(p.Status), "", "",
			string(p.ExitReason), p.ReturnPct, p.ReturnDollars, p.DaysHeld,
		}
		if p.ExitDate != nil {
			values[9] = p.ExitDate.Format(dateLayout)
		}
		if p.ExitPrice != nil {
			values[10] = *p.ExitPrice
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(*out); err != nil {
		fatalf(exitUserError, "[CLI] failed writing %s: %v", *out, err)
	}
	fmt.Printf("exported %d position(s) to %s\n", len(rows), *out)
}
