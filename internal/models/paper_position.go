package models

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

type ExitReason string

const (
	ExitProfitTarget ExitReason = "profit_target"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTimeExit     ExitReason = "time_exit"
	ExitManual       ExitReason = "manual"
)

// DefaultPositionSizeDollars is the fixed simulated position size.
const DefaultPositionSizeDollars = 1000.0

// PaperPosition simulates an investment position opened from an approved
// eligible signal. Closed positions must have every exit field populated
// and ExitDate >= EntryDate.
type PaperPosition struct {
	ID            uint64         `json:"id" gorm:"primaryKey"`
	SignalEventID uint64         `json:"signal_event_id" gorm:"not null;uniqueIndex:idx_position_event"`
	Brand         string         `json:"brand" gorm:"size:128;not null"`
	Tag           string         `json:"tag" gorm:"size:64;not null"`
	Ticker        string         `json:"ticker" gorm:"size:16;not null"`
	EntryDate     time.Time      `json:"entry_date" gorm:"type:date;not null"`
	EntryPrice    float64        `json:"entry_price" gorm:"not null"`
	CurrentPrice  float64        `json:"current_price" gorm:"not null"`
	SizeDollars   float64        `json:"size_dollars" gorm:"not null"`
	Status        PositionStatus `json:"status" gorm:"size:16;not null;index"`
	ExitDate      *time.Time     `json:"exit_date,omitempty" gorm:"type:date"`
	ExitPrice     *float64       `json:"exit_price,omitempty"`
	ExitReason    ExitReason     `json:"exit_reason,omitempty" gorm:"size:16"`
	ReturnPct     float64        `json:"return_pct"`
	ReturnDollars float64        `json:"return_dollars"`
	DaysHeld      int            `json:"days_held" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (PaperPosition) TableName() string { return "paper_positions" }
