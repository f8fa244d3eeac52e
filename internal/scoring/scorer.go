package scoring

import (
	"log"
	"time"

	"eva-finance/internal/aggregate"
	"eva-finance/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config bundles the configurable gates, band thresholds, weights, and the
// validator trigger threshold. Every field here is read from
// internal/config, never baked in.
type Config struct {
	Weights              Weights
	Gates                Gates
	Bands                Bands
	BaselineLookbackDays int
	MinValidationConf    float64
}

// Scorer runs the confidence scoring engine once per scoring interval,
// over every (day, brand, tag) candidate produced by the candidate-signal
// projection.
type Scorer struct {
	db        *gorm.DB
	cfg       Config
	validator *Validator
}

func NewScorer(db *gorm.DB, cfg Config, validator *Validator) *Scorer {
	return &Scorer{db: db, cfg: cfg, validator: validator}
}

// RunResult summarizes one scoring pass, returned for operator visibility
// (score-now CLI command, cmd/score daemon log line).
type RunResult struct {
	Candidates         int
	Scored             int
	Suppressed         int
	Watchlisted        int
	High               int
	ValidatorConsulted int
	ValidatorPending   int
	EventsEmitted      int
}

// RunOnce scores every candidate for day, persists one ConfidenceScore row
// per (day, brand, tag, scoring_version), and emits WATCHLIST_WARM /
// RECOMMENDATION_ELIGIBLE events on band transitions. Idempotent: an
// unchanged set of inputs produces identical row content on re-run.
func (s *Scorer) RunOnce(day time.Time) (RunResult, error) {
	day = day.Truncate(24 * time.Hour)

	candidates, err := aggregate.CandidateSignals(s.db, day)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult
	result.Candidates = len(candidates)

	for _, c := range candidates {
		prevBand, err := s.previousBand(day, c.Brand, c.Tag)
		if err != nil {
			return result, err
		}

		score, err := s.scoreOne(day, c)
		if err != nil {
			return result, err
		}

		switch score.Band {
		case models.BandSuppressed:
			result.Suppressed++
		case models.BandWatchlist:
			result.Watchlisted++
		case models.BandHigh:
			result.High++
		}
		if score.Details["validator_consulted"] == true {
			result.ValidatorConsulted++
		}
		if score.Details["validator_status"] == string(models.ValidationPending) {
			result.ValidatorPending++
		}

		emitted, err := s.persistAndEmit(day, score, prevBand)
		if err != nil {
			return result, err
		}
		result.EventsEmitted += emitted
		result.Scored++
	}

	return result, nil
}

// previousBand looks up the band from the most recent prior ConfidenceScore
// row for (brand, tag), used to detect the band transitions that drive
// event emission. Absence is treated as SUPPRESSED (no prior signal).
func (s *Scorer) previousBand(day time.Time, brand, tag string) (models.Band, error) {
	var prev models.ConfidenceScore
	err := s.db.Where("brand = ? AND tag = ? AND day < ?", brand, tag, day).
		Order("day DESC").
		First(&prev).Error
	if err == gorm.ErrRecordNotFound {
		return models.BandSuppressed, nil
	}
	if err != nil {
		return "", err
	}
	return prev.Band, nil
}

func (s *Scorer) scoreOne(day time.Time, c aggregate.Candidate) (models.ConfidenceScore, error) {
	factors, err := Compute(s.db, c, day, s.cfg.BaselineLookbackDays)
	if err != nil {
		return models.ConfidenceScore{}, err
	}

	gateFailed := GateCheck(factors, s.cfg.Gates)

	final := 0.0
	band := models.BandSuppressed
	if gateFailed == models.GateFailedNone {
		final = Final(factors, s.cfg.Weights)
		band = Classify(final, s.cfg.Bands)
	}

	details := models.JSONMap{
		"delta_pct":           c.DeltaPct,
		"message_count":       c.MessageCount,
		"source_count":        c.SourceCount,
		"platform_count":      c.PlatformCount,
		"action_intent_rate":  c.ActionIntentRate,
		"eval_intent_rate":    c.EvalIntentRate,
		"meme_risk":           c.MemeRisk,
		"validator_consulted": false,
	}

	warming, reason := IsWatchlistWarming(band, factors)
	if warming {
		details["watchlist_warm_reason"] = reason
	}

	score := models.ConfidenceScore{
		Day:               day,
		Brand:             c.Brand,
		Tag:               c.Tag,
		ScoringVersion:    models.ScoringVersion,
		AccelerationScore: factors.Acceleration,
		IntentScore:       factors.Intent,
		SpreadScore:       factors.Spread,
		BaselineScore:     factors.Baseline,
		SuppressionScore:  factors.Suppression,
		FinalConfidence:   final,
		Band:              band,
		GateFailedReason:  gateFailed,
		Details:           details,
		ComputedAt:        time.Now(),
	}

	// Cross-validation is optional and non-blocking: only consulted when
	// gates passed and the final score clears MIN_VALIDATION_CONF. A
	// pending result never touches final/band.
	if gateFailed == models.GateFailedNone && final >= s.cfg.MinValidationConf && s.validator != nil && s.validator.Enabled() {
		validation := s.validator.Validate(c.Brand)
		details["validator_consulted"] = true
		details["validator_status"] = string(validation.Status)
		details["validator_direction"] = string(validation.TrendDirection)
		details["validator_interest"] = validation.SearchInterest

		if validation.Status == models.ValidationCompleted {
			details["validator_boost"] = validation.ConfidenceBoost
			adjusted := clamp01(score.FinalConfidence + validation.ConfidenceBoost)
			score.FinalConfidence = adjusted
			score.Band = Classify(adjusted, s.cfg.Bands)
		}
		// Pending: recorded in details above, final/band left untouched.
	}

	return score, nil
}

// persistAndEmit upserts the ConfidenceScore row (conflict-do-update on
// the unique dedup tuple, since a re-score of the same day must overwrite
// with identical content rather than duplicate) and emits WATCHLIST_WARM /
// RECOMMENDATION_ELIGIBLE on transitions into those bands.
func (s *Scorer) persistAndEmit(day time.Time, score models.ConfidenceScore, prevBand models.Band) (int, error) {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}, {Name: "brand"}, {Name: "tag"}, {Name: "scoring_version"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"acceleration_score", "intent_score", "spread_score", "baseline_score",
			"suppression_score", "final_confidence", "band", "gate_failed_reason",
			"details", "computed_at",
		}),
	}).Create(&score).Error
	if err != nil {
		return 0, err
	}

	emitted := 0
	if score.Band == models.BandWatchlist && prevBand != models.BandWatchlist {
		if ok, err := s.emitEvent(models.EventWatchlistWarm, score, models.SeverityInfo); err != nil {
			return emitted, err
		} else if ok {
			emitted++
		}
	} else if warming, _ := score.Details["watchlist_warm_reason"].(string); warming != "" && score.Band != models.BandHigh {
		if ok, err := s.emitEvent(models.EventWatchlistWarm, score, models.SeverityInfo); err != nil {
			return emitted, err
		} else if ok {
			emitted++
		}
	}

	if score.Band == models.BandHigh && prevBand != models.BandHigh {
		if ok, err := s.emitEvent(models.EventRecommendationEligible, score, models.SeverityWarning); err != nil {
			return emitted, err
		} else if ok {
			emitted++
		}
	}

	return emitted, nil
}

func (s *Scorer) emitEvent(kind models.SignalEventKind, score models.ConfidenceScore, severity models.Severity) (bool, error) {
	event := models.SignalEvent{
		Kind:     kind,
		Tag:      score.Tag,
		Brand:    score.Brand,
		Day:      score.Day,
		Severity: severity,
		Payload: models.JSONMap{
			"final_confidence": score.FinalConfidence,
			"band":             string(score.Band),
			"scoring_version":  score.ScoringVersion,
		},
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[SCORE] emitted %s brand=%q tag=%q final=%.3f", kind, score.Brand, score.Tag, score.FinalConfidence)
	}
	return res.RowsAffected > 0, nil
}
