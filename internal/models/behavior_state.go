package models

import "time"

type BehaviorStateValue string

const (
	BehaviorNormal   BehaviorStateValue = "NORMAL"
	BehaviorElevated BehaviorStateValue = "ELEVATED"
)

// BehaviorState is the tag-level state machine. Transitions to ELEVATED
// latch: the trigger emitter never flips a tag back, and no other stage
// (the scorer included) writes this table.
type BehaviorState struct {
	Tag        string             `json:"tag" gorm:"primaryKey;size:64"`
	State      BehaviorStateValue `json:"state" gorm:"size:16;not null;index"`
	Confidence float64            `json:"confidence" gorm:"not null"`
	FirstSeen  time.Time          `json:"first_seen" gorm:"not null"`
	LastSeen   time.Time          `json:"last_seen" gorm:"not null;index"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (BehaviorState) TableName() string { return "behavior_states" }
