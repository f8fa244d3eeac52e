package models

import "time"

type SignalEventKind string

const (
	EventTagElevated            SignalEventKind = "TAG_ELEVATED"
	EventBrandDivergence        SignalEventKind = "BRAND_DIVERGENCE"
	EventWatchlistWarm          SignalEventKind = "WATCHLIST_WARM"
	EventRecommendationEligible SignalEventKind = "RECOMMENDATION_ELIGIBLE"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SignalEvent is an append-only emission record. At most one row exists
// per (kind, tag-or-empty, brand-or-empty, day); the unique index below
// enforces that and makes re-runs of the emitter no-ops.
type SignalEvent struct {
	ID           uint64          `json:"id" gorm:"primaryKey"`
	Kind         SignalEventKind `json:"kind" gorm:"size:32;not null;uniqueIndex:idx_signal_event_dedup"`
	Tag          string          `json:"tag" gorm:"size:64;uniqueIndex:idx_signal_event_dedup"`
	Brand        string          `json:"brand" gorm:"size:128;uniqueIndex:idx_signal_event_dedup"`
	Day          time.Time       `json:"day" gorm:"type:date;not null;uniqueIndex:idx_signal_event_dedup"`
	Severity     Severity        `json:"severity" gorm:"size:16;not null"`
	Payload      JSONMap         `json:"payload" gorm:"type:text"`
	Acknowledged bool            `json:"acknowledged" gorm:"not null;default:false"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (SignalEvent) TableName() string { return "signal_events" }
