package models

import "time"

type Band string

const (
	BandHigh       Band = "HIGH"
	BandWatchlist  Band = "WATCHLIST"
	BandSuppressed Band = "SUPPRESSED"
)

type GateFailedReason string

const (
	GateFailedNone        GateFailedReason = ""
	GateFailedIntent      GateFailedReason = "GATE_INTENT"
	GateFailedSuppression GateFailedReason = "GATE_SUPPRESSION"
	GateFailedSpread      GateFailedReason = "GATE_SPREAD"
)

// ScoringVersion identifies the closed-form implementation that produced a
// ConfidenceScore row. Changing the formula requires bumping this, not
// mutating existing rows in place.
const ScoringVersion = "v1"

// ConfidenceScore is one row per (day, brand, tag, scoring_version), unique
// on that tuple. Re-running the scorer for an unchanged day is idempotent:
// the row content is identical, not merely present.
type ConfidenceScore struct {
	ID                uint64           `json:"id" gorm:"primaryKey"`
	Day               time.Time        `json:"day" gorm:"type:date;not null;uniqueIndex:idx_confidence_score_dedup"`
	Brand             string           `json:"brand" gorm:"size:128;not null;uniqueIndex:idx_confidence_score_dedup"`
	Tag               string           `json:"tag" gorm:"size:64;not null;uniqueIndex:idx_confidence_score_dedup"`
	ScoringVersion    string           `json:"scoring_version" gorm:"size:16;not null;uniqueIndex:idx_confidence_score_dedup"`
	AccelerationScore float64          `json:"acceleration_score" gorm:"not null"`
	IntentScore       float64          `json:"intent_score" gorm:"not null"`
	SpreadScore       float64          `json:"spread_score" gorm:"not null"`
	BaselineScore     float64          `json:"baseline_score" gorm:"not null"`
	SuppressionScore  float64          `json:"suppression_score" gorm:"not null"`
	FinalConfidence   float64          `json:"final_confidence" gorm:"not null"`
	Band              Band             `json:"band" gorm:"size:16;not null;index"`
	GateFailedReason  GateFailedReason `json:"gate_failed_reason,omitempty" gorm:"size:32"`
	Details           JSONMap          `json:"details" gorm:"type:text"`
	ComputedAt        time.Time        `json:"computed_at"`
}

func (ConfidenceScore) TableName() string { return "confidence_scores" }
