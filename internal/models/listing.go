package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ListingStatusActive = "ACTIVE"
	ListingStatusClosed = "CLOSED"
)

// ContentListing is a creator's planned upload. It owns its ad slots.
type ContentListing struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	CreatorID string `gorm:"type:varchar(64);not null;index"`
	ChannelID string `gorm:"type:varchar(64);index"`

	Title       string `gorm:"type:varchar(200);not null"`
	Topic       string `gorm:"type:varchar(120);not null;index"`
	SeriesName  string `gorm:"type:varchar(200)"`
	Description string `gorm:"type:text"`

	PlannedPublishDate time.Time `gorm:"not null;index"`
	Status             string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`

	AdSlots []AdSlot `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	Bids    []Bid    `gorm:"foreignKey:ListingID"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ContentListing) TableName() string {
	return "content_listings"
}

func (l *ContentListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
