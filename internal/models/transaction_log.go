package models

import (
	"time"
)

// TransactionType is the legal transition class of a balance write.
type TransactionType string

const (
	TransactionTypeJointAward        TransactionType = "joint_award"
	TransactionTypeCoinRedemption    TransactionType = "coin_redemption"
	TransactionTypeCoinCorrection    TransactionType = "coin_correction"
	TransactionTypeLoyaltyCorrection TransactionType = "loyalty_correction"
	TransactionTypeSystemSync        TransactionType = "system_sync"
)

// TransactionLog is the audit trail, one row per committed balance write.
// It is append-only and never consulted for balance computation; the
// balances-after columns are read inside the same transaction as the write,
// so the log can never disagree with the members table at commit time.
type TransactionLog struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID            uint            `gorm:"not null;index:idx_translog_member" json:"member_id"`
	TransactionType     TransactionType `gorm:"size:32;not null" json:"transaction_type"`
	LoyaltyAmount       int64           `gorm:"not null;default:0" json:"loyalty_amount"`
	CoinAmount          int64           `gorm:"not null;default:0" json:"coin_amount"`
	LoyaltyBalanceAfter int64           `gorm:"not null" json:"loyalty_balance_after"`
	CoinBalanceAfter    int64           `gorm:"not null" json:"coin_balance_after"`
	ReferenceTable      string          `gorm:"size:64" json:"reference_table"`
	ReferenceID         string          `gorm:"size:64" json:"reference_id"`
	IdempotencyKey      *string         `gorm:"size:64;uniqueIndex:uk_translog_idem" json:"idempotency_key,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (TransactionLog) TableName() string {
	return "transaction_log"
}
