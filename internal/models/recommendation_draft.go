package models

import "time"

// RecommendationDraft is the human-gate record behind every notification.
// Invariants enforced by callers (internal/recommend, internal/notify):
//   - one draft per triggering event (unique SignalEventID)
//   - NotifiedAt is set only when Approved is true
//   - once Attempts reaches the cap the row is no longer claimable
type RecommendationDraft struct {
	ID              uint64     `json:"id" gorm:"primaryKey"`
	SignalEventID   uint64     `json:"signal_event_id" gorm:"not null;uniqueIndex:idx_draft_event"`
	Brand           string     `json:"brand" gorm:"size:128;not null"`
	Tag             string     `json:"tag" gorm:"size:64;not null"`
	EventTime       time.Time  `json:"event_time" gorm:"not null"`
	FinalConfidence float64    `json:"final_confidence" gorm:"not null"`
	Band            Band       `json:"band" gorm:"size:16;not null"`
	BundlePath      string     `json:"bundle_path" gorm:"size:512;not null"`
	BundleSHA256    string     `json:"bundle_sha256" gorm:"size:64;not null"`
	MarkdownPath    string     `json:"markdown_path" gorm:"size:512;not null"`
	MarkdownSHA256  string     `json:"markdown_sha256" gorm:"size:64;not null"`
	Approved        bool       `json:"approved" gorm:"not null;default:false;index"`
	ApprovedBy      string     `json:"approved_by,omitempty" gorm:"size:128"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	NotifiedAt      *time.Time `json:"notified_at,omitempty" gorm:"index"`
	Attempts        int        `json:"attempts" gorm:"not null;default:0"`
	LastError       string     `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (RecommendationDraft) TableName() string { return "recommendation_drafts" }
