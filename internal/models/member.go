package models

import (
	"time"
)

// Member carries the two cached balances. Both columns are materialized
// sums of the matching history tables; the reconciliation service is the
// only writer allowed to patch them outside the award paths.
//
// Invariant, enforced on every write: 0 <= coin <= loyalty_point.
type Member struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName  string    `gorm:"size:255" json:"display_name"`
	LoyaltyPoint int64     `gorm:"not null;default:0" json:"loyalty_point"`
	Coin         int64     `gorm:"not null;default:0" json:"coin"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}
