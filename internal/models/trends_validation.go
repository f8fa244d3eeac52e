package models

import "time"

type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendStable  TrendDirection = "stable"
	TrendFalling TrendDirection = "falling"
	TrendUnknown TrendDirection = "unknown"
)

type ValidationStatus string

const (
	ValidationCompleted ValidationStatus = "completed"
	ValidationPending   ValidationStatus = "pending"
)

// TrendsValidation records one external-search cross-validation attempt.
// A row with Status == ValidationPending MUST NOT influence any
// ConfidenceScore — the scorer records it in Details but never reads the
// boost back out of a pending row.
type TrendsValidation struct {
	ID              uint64           `json:"id" gorm:"primaryKey"`
	Brand           string           `json:"brand" gorm:"size:128;not null;index"`
	CheckedAt       time.Time        `json:"checked_at" gorm:"not null"`
	SearchInterest  float64          `json:"search_interest"`
	TrendDirection  TrendDirection   `json:"trend_direction" gorm:"size:16"`
	ValidatesSignal bool             `json:"validates_signal"`
	ConfidenceBoost float64          `json:"confidence_boost"`
	Status          ValidationStatus `json:"validation_status" gorm:"size:16;not null"`
	ErrorMessage    string           `json:"error_message,omitempty" gorm:"type:text"`
}

func (TrendsValidation) TableName() string { return "trends_validations" }
