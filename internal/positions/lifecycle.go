package positions

import (
	"log"
	"time"

	"eva-finance/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Exit rule thresholds.
const (
	ProfitTargetPct = 0.15
	StopLossPct     = -0.10
	TimeExitDays    = 90
)

// Manager runs the paper-position entry, refresh, and exit operations.
type Manager struct {
	db           *gorm.DB
	prices       *MarketPriceClient
	tickerLookup *TickerLookupClient
}

func NewManager(db *gorm.DB, prices *MarketPriceClient, tickerLookup *TickerLookupClient) *Manager {
	return &Manager{db: db, prices: prices, tickerLookup: tickerLookup}
}

// OpenEntries opens a PaperPosition for each approved RECOMMENDATION_ELIGIBLE
// event that has no existing position and whose brand resolves to a
// material, tradable ticker. Approval is the human gate: an eligible event
// whose draft was never approved does not get a position.
func (m *Manager) OpenEntries() (int, error) {
	var events []models.SignalEvent
	err := m.db.
		Joins("JOIN recommendation_drafts ON recommendation_drafts.signal_event_id = signal_events.id").
		Where("signal_events.kind = ? AND recommendation_drafts.approved = ?", models.EventRecommendationEligible, true).
		Find(&events).Error
	if err != nil {
		return 0, err
	}

	opened := 0
	for _, event := range events {
		var existing models.PaperPosition
		err := m.db.Where("signal_event_id = ?", event.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return opened, err
		}

		mapping, ok, err := m.resolveTicker(event.Brand)
		if err != nil {
			return opened, err
		}
		if !ok || !mapping.Material {
			continue
		}

		price, err := m.prices.CurrentPrice(mapping.Ticker)
		if err != nil {
			log.Printf("[POSITIONS] price fetch failed for %s: %v", mapping.Ticker, err)
			continue
		}

		position := models.PaperPosition{
			SignalEventID: event.ID,
			Brand:         event.Brand,
			Tag:           event.Tag,
			Ticker:        mapping.Ticker,
			EntryDate:     time.Now().Truncate(24 * time.Hour),
			EntryPrice:    price,
			CurrentPrice:  price,
			SizeDollars:   models.DefaultPositionSizeDollars,
			Status:        models.PositionOpen,
		}
		res := m.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "signal_event_id"}},
			DoNothing: true,
		}).Create(&position)
		if res.Error != nil {
			return opened, res.Error
		}
		if res.RowsAffected > 0 {
			opened++
			log.Printf("[POSITIONS] opened %s (%s) entry=%.2f", mapping.Ticker, event.Brand, price)
		}
	}
	return opened, nil
}

// resolveTicker checks the operator-maintained BrandTickerMap first (the
// source of truth for materiality) and falls back to the external
// ticker-lookup provider only to discover a ticker value; materiality is
// never inferred from the external provider.
func (m *Manager) resolveTicker(brand string) (models.BrandTickerMap, bool, error) {
	var mapping models.BrandTickerMap
	err := m.db.Where("normalized_brand = ?", models.NormalizeBrand(brand)).First(&mapping).Error
	if err == nil {
		return mapping, mapping.Ticker != "", nil
	}
	if err != gorm.ErrRecordNotFound {
		return models.BrandTickerMap{}, false, err
	}

	ticker, exchange, ok, err := m.tickerLookup.Lookup(brand)
	if err != nil || !ok {
		return models.BrandTickerMap{}, false, err
	}
	// A brand discovered only through the external lookup has no
	// materiality determination yet; it is recorded unmapped-material so
	// an operator can classify it via `eva-cli map-brand --material`.
	mapping = models.BrandTickerMap{Brand: brand, Ticker: ticker, Exchange: exchange, Material: false}
	mapping.Normalize()
	if err := m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&mapping).Error; err != nil {
		return models.BrandTickerMap{}, false, err
	}
	return mapping, false, nil
}

// RefreshResult summarizes one price-refresh + exit-rule pass.
type RefreshResult struct {
	Refreshed int
	Closed    int
}

// RefreshAndCloseOpen updates every open position's current price and
// days-held, then applies the exit rules: profit target, stop loss, time
// exit. Exactly one rule applies per close.
func (m *Manager) RefreshAndCloseOpen() (RefreshResult, error) {
	var open []models.PaperPosition
	if err := m.db.Where("status = ?", models.PositionOpen).Find(&open).Error; err != nil {
		return RefreshResult{}, err
	}

	var result RefreshResult
	for _, p := range open {
		price, err := m.prices.CurrentPrice(p.Ticker)
		if err != nil {
			log.Printf("[POSITIONS] refresh skipped for %s: %v", p.Ticker, err)
			continue
		}
		result.Refreshed++

		daysHeld := int(time.Since(p.EntryDate).Hours() / 24)
		returnPct := (price - p.EntryPrice) / p.EntryPrice
		returnDollars := returnPct * p.SizeDollars

		updates := map[string]interface{}{
			"current_price":  price,
			"days_held":      daysHeld,
			"return_pct":     returnPct,
			"return_dollars": returnDollars,
		}

		reason, shouldClose := exitReason(returnPct, daysHeld)
		if shouldClose {
			now := time.Now().Truncate(24 * time.Hour)
			updates["status"] = models.PositionClosed
			updates["exit_date"] = now
			updates["exit_price"] = price
			updates["exit_reason"] = reason
			result.Closed++
			log.Printf("[POSITIONS] closed %s (%s) reason=%s return_pct=%.4f", p.Ticker, p.Brand, reason, returnPct)
		}

		if err := m.db.Model(&models.PaperPosition{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return result, err
		}
	}
	return result, nil
}

// exitReason evaluates the exit rules in priority order: profit target,
// then stop loss, then time exit. Exactly one applies.
func exitReason(returnPct float64, daysHeld int) (models.ExitReason, bool) {
	switch {
	case returnPct >= ProfitTargetPct:
		return models.ExitProfitTarget, true
	case returnPct <= StopLossPct:
		return models.ExitStopLoss, true
	case daysHeld >= TimeExitDays:
		return models.ExitTimeExit, true
	default:
		return "", false
	}
}

// CloseManually closes an open position outside the normal exit rules
// (operator intervention), recording ExitManual as the exit reason. No
// command or test in this repository calls it.
func (m *Manager) CloseManually(positionID uint64, price float64) error {
	var p models.PaperPosition
	if err := m.db.First(&p, positionID).Error; err != nil {
		return err
	}
	if p.Status == models.PositionClosed {
		return nil
	}
	now := time.Now().Truncate(24 * time.Hour)
	returnPct := (price - p.EntryPrice) / p.EntryPrice
	return m.db.Model(&models.PaperPosition{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":         models.PositionClosed,
		"exit_date":      now,
		"exit_price":     price,
		"exit_reason":    models.ExitManual,
		"current_price":  price,
		"return_pct":     returnPct,
		"return_dollars": returnPct * p.SizeDollars,
	}).Error
}
