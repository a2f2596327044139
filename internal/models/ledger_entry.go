package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	LedgerDealCreated          = "deal_created"
	LedgerContentSubmitted     = "content_submitted"
	LedgerVerificationReviewed = "verification_reviewed"
	LedgerPaymentUpdated       = "payment_updated"
)

// LedgerEntry is an append-only record of a deal transition, written in the transition's transaction.
type LedgerEntry struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	DealID  string `gorm:"type:varchar(36);not null;index"`
	BidID   string `gorm:"type:varchar(36);index"`
	SlotID  string `gorm:"type:varchar(36);index"`
	Kind    string `gorm:"type:varchar(40);not null;index"`
	ActorID string `gorm:"type:varchar(64)"`

	Details datatypes.JSON

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (LedgerEntry) TableName() string {
	return "deal_ledger_entries"
}
