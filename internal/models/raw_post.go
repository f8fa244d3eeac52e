package models

import "time"

// RawPost is an immutable record of one ingested post. (source, platform_id)
// is unique; the text body is never mutated after insert — extraction only
// ever writes a ProcessedPost that references it.
type RawPost struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	Source     string    `json:"source" gorm:"size:64;not null;uniqueIndex:idx_raw_post_source_platform_id"`
	PlatformID string    `json:"platform_id" gorm:"size:128;not null;uniqueIndex:idx_raw_post_source_platform_id"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null;index"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	URL        string    `json:"url,omitempty"`
	Meta       JSONMap   `json:"meta,omitempty" gorm:"type:text"`
	Processed  bool      `json:"processed" gorm:"not null;default:false;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (RawPost) TableName() string { return "raw_posts" }
