package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BidStatusPending  = "PENDING"
	BidStatusAccepted = "ACCEPTED"
	BidStatusRejected = "REJECTED"
	BidStatusOutbid   = "OUTBID"
	BidStatusExpired  = "EXPIRED"
)

// Bid is a brand's offer for one slot.
// CreatorID is copied from the slot's listing when the bid is placed and only serves creator-side queries.
type Bid struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	BrandID   string `gorm:"type:varchar(64);not null;index"`
	SlotID    string `gorm:"type:varchar(36);not null;index"`
	ListingID string `gorm:"type:varchar(36);not null;index"`
	CreatorID string `gorm:"type:varchar(64);not null;index"`

	Amount  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Message string          `gorm:"type:text"`

	Status string `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Bid) TableName() string {
	return "bids"
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
