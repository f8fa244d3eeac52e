package aggregate

import (
	"math"
	"time"

	"eva-finance/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TriggerEmitter converts projections into SignalEvents. Dedup is enforced
// by the unique (kind, tag, brand, day) index on SignalEvent, so repeat
// runs over an unchanged projection emit nothing new.
type TriggerEmitter struct {
	db *gorm.DB
}

func NewTriggerEmitter(db *gorm.DB) *TriggerEmitter { return &TriggerEmitter{db: db} }

// EmitTagElevated emits one TAG_ELEVATED event per tag whose BehaviorState
// is ELEVATED with LastSeen within the last day, carrying the stored
// confidence in the payload.
func (e *TriggerEmitter) EmitTagElevated(day time.Time) (int, error) {
	cutoff := day.AddDate(0, 0, -1)

	var states []models.BehaviorState
	if err := e.db.Where("state = ? AND last_seen >= ?", models.BehaviorElevated, cutoff).Find(&states).Error; err != nil {
		return 0, err
	}

	emitted := 0
	for _, s := range states {
		event := models.SignalEvent{
			Kind:     models.EventTagElevated,
			Tag:      s.Tag,
			Brand:    "",
			Day:      day.Truncate(24 * time.Hour),
			Severity: models.SeverityInfo,
			Payload: models.JSONMap{
				"confidence": s.Confidence,
				"first_seen": s.FirstSeen,
				"last_seen":  s.LastSeen,
			},
		}
		res := e.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if res.Error != nil {
			return emitted, res.Error
		}
		if res.RowsAffected > 0 {
			emitted++
		}
	}
	return emitted, nil
}

// EmitBrandDivergence emits one BRAND_DIVERGENCE event per brand within
// each tag whose share of tag-day messages changed by at least 5
// percentage points vs the previous day. Severity is critical when the
// absolute z-score of the change exceeds 2.0, else warning.
func (e *TriggerEmitter) EmitBrandDivergence(day time.Time) (int, error) {
	candidates, err := CandidateSignals(e.db, day)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, c := range candidates {
		if math.Abs(c.DeltaPct) < 5.0 {
			continue
		}

		history, err := e.recentDeltas(c.Brand, c.Tag, day, 14)
		if err != nil {
			return emitted, err
		}
		z := zScore(c.DeltaPct, history)

		severity := models.SeverityWarning
		if math.Abs(z) > 2.0 {
			severity = models.SeverityCritical
		}

		event := models.SignalEvent{
			Kind:     models.EventBrandDivergence,
			Tag:      c.Tag,
			Brand:    c.Brand,
			Day:      day.Truncate(24 * time.Hour),
			Severity: severity,
			Payload: models.JSONMap{
				"delta_pct":     c.DeltaPct,
				"z_score":       z,
				"message_count": c.MessageCount,
			},
		}
		res := e.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if res.Error != nil {
			return emitted, res.Error
		}
		if res.RowsAffected > 0 {
			emitted++
		}
	}
	return emitted, nil
}

// recentDeltas gathers the last n days of day-over-day share deltas for
// (brand, tag), used as the baseline population for the divergence
// z-score. Computed from DailyBrandTagSummary rather than a stored series
// since the candidate projection is itself recomputable from history.
func (e *TriggerEmitter) recentDeltas(brand, tag string, day time.Time, n int) ([]float64, error) {
	var deltas []float64
	for i := 1; i <= n; i++ {
		d := day.AddDate(0, 0, -i)
		cands, err := CandidateSignals(e.db, d)
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			if c.Brand == brand && c.Tag == tag {
				deltas = append(deltas, c.DeltaPct)
			}
		}
	}
	return deltas, nil
}

func zScore(value float64, history []float64) float64 {
	if len(history) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range history {
		mean += v
	}
	mean /= float64(len(history))

	variance := 0.0
	for _, v := range history {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(history))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// UpdateBehaviorStates recomputes each tag's BehaviorState from today's
// projection so EmitTagElevated has fresh data to read. State only latches
// to ELEVATED here, never flips back; no stage in this repository resets a
// tag to NORMAL once it is ELEVATED.
func (e *TriggerEmitter) UpdateBehaviorStates(day time.Time) error {
	rows, err := DailyBrandTagSummary(e.db, day)
	if err != nil {
		return err
	}

	tagConfidence := map[string]float64{}
	for _, r := range rows {
		c := tagConfidence[r.Tag]
		weighted := r.ActionIntentRate * math.Min(1.0, float64(r.MessageCount)/20.0)
		if weighted > c {
			tagConfidence[r.Tag] = weighted
		}
	}

	for tag, confidence := range tagConfidence {
		state := models.BehaviorStateValue(models.BehaviorNormal)
		if confidence >= 0.5 {
			state = models.BehaviorElevated
		}

		var existing models.BehaviorState
		err := e.db.Where("tag = ?", tag).First(&existing).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			existing = models.BehaviorState{
				Tag:        tag,
				State:      state,
				Confidence: confidence,
				FirstSeen:  day,
				LastSeen:   day,
			}
			if err := e.db.Create(&existing).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			existing.LastSeen = day
			existing.Confidence = confidence
			if state == models.BehaviorElevated {
				existing.State = models.BehaviorElevated // latching
			}
			if err := e.db.Save(&existing).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
