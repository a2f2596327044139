package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SlotStatusAvailable = "AVAILABLE"
	SlotStatusSold      = "SOLD"
)

const (
	SlotTypeInVideoIntegration = "IN_VIDEO_INTEGRATION"
	SlotTypeLiveMention        = "LIVE_MENTION"
	SlotTypeStory              = "STORY"
	SlotTypeShoutout           = "SHOUTOUT"
	SlotTypeDescriptionLink    = "DESCRIPTION_LINK"
)

var slotTypes = map[string]struct{}{
	SlotTypeInVideoIntegration: {},
	SlotTypeLiveMention:        {},
	SlotTypeStory:              {},
	SlotTypeShoutout:           {},
	SlotTypeDescriptionLink:    {},
}

func IsValidSlotType(v string) bool {
	_, ok := slotTypes[v]
	return ok
}

// AdSlot is one sellable placement inside a listing. AVAILABLE -> SOLD happens once.
type AdSlot struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	ListingID string `gorm:"type:varchar(36);not null;index"`

	SlotType     string          `gorm:"type:varchar(40);not null"`
	ReservePrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	DurationSeconds *int
	Position        *string `gorm:"type:varchar(60)"`

	Status string `gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`

	Listing *ContentListing `gorm:"foreignKey:ListingID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AdSlot) TableName() string {
	return "ad_slots"
}

func (s *AdSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
