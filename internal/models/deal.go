package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentTimingUpfront       = "UPFRONT"
	PaymentTimingAfterDelivery = "AFTER_DELIVERY"
)

const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusPaid       = "PAID"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusRefunded   = "REFUNDED"
)

const (
	VerificationPending  = "PENDING"
	VerificationApproved = "APPROVED"
	VerificationRejected = "REJECTED"
	VerificationDisputed = "DISPUTED"
)

// Deal is the settled contract created from exactly one accepted bid.
// DealAmount, PlatformFee and CreatorPayout are fixed when the deal is created.
type Deal struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	BidID     string `gorm:"type:varchar(36);not null;uniqueIndex"`
	SlotID    string `gorm:"type:varchar(36);not null;uniqueIndex"`
	CreatorID string `gorm:"type:varchar(64);not null;index"`
	BrandID   string `gorm:"type:varchar(64);not null;index"`

	DealAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PlatformFee   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatorPayout decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	PaymentTiming string `gorm:"type:varchar(20);not null;default:'AFTER_DELIVERY'"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	ContentDelivered bool   `gorm:"not null;default:false"`
	ContentURL       string `gorm:"type:text"`
	DeliveredAt      *time.Time

	VerificationStatus string `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VerificationNotes  string `gorm:"type:text"`

	Slot *AdSlot `gorm:"foreignKey:SlotID"`

	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	CompletedAt *time.Time
}

func (Deal) TableName() string {
	return "deals"
}

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
