package models

import (
	"time"
)

// EventType tags every history row and transaction-log row with the flow
// that produced it.
type EventType string

const (
	EventTypeTaskCompletion  EventType = "task_completion"
	EventTypeAdminCorrection EventType = "admin_correction"
	EventTypeAdminManual     EventType = "admin_manual"
	EventTypeRedemption      EventType = "redemption"
	EventTypeSystemSync      EventType = "system_sync"
)

// LoyaltyPointHistory is the append-only delta log for the lifetime score.
// Rows are never updated or deleted; the cached members.loyalty_point column
// is the sum of these deltas.
type LoyaltyPointHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID  uint      `gorm:"not null;index:idx_loyalty_history_member" json:"member_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Event     string    `gorm:"size:255;not null" json:"event"`
	EventType EventType `gorm:"size:32;not null" json:"event_type"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LoyaltyPointHistory) TableName() string {
	return "loyalty_point_history"
}

// CoinHistory is the append-only delta log for the spendable balance,
// structurally identical to LoyaltyPointHistory.
type CoinHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID  uint      `gorm:"not null;index:idx_coin_history_member" json:"member_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Event     string    `gorm:"size:255;not null" json:"event"`
	EventType EventType `gorm:"size:32;not null" json:"event_type"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CoinHistory) TableName() string {
	return "coin_history"
}
