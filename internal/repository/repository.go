package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"adstream/internal/models"
)

// ErrWriteConflict marks a store-level race: a unique violation or a serialization
// failure reported by the database.
var ErrWriteConflict = errors.New("write conflict")

type ListingRepository interface {
	CreateListingTx(ctx context.Context, tx *gorm.DB, item *models.ContentListing) error
	CreateAdSlotsTx(ctx context.Context, tx *gorm.DB, items []models.AdSlot) error
	GetListingByID(ctx context.Context, id string) (*models.ContentListing, error)
	GetListingByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.ContentListing, error)
	ListListings(ctx context.Context, params ListListingsParams) ([]models.ContentListing, error)
	CountListings(ctx context.Context, params ListListingsParams) (int64, error)
	ListDiscoverableListings(ctx context.Context, params DiscoverParams) ([]models.ContentListing, error)
	CountDiscoverableListings(ctx context.Context, params DiscoverParams) (int64, error)
	CountPendingBidsByListingIDs(ctx context.Context, listingIDs []string) (map[string]int64, error)
	CloseListingsPublishedBeforeTx(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)

	GetAdSlotByID(ctx context.Context, id string) (*models.AdSlot, error)
	GetAdSlotByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.AdSlot, error)
	// MarkAdSlotSoldTx flips AVAILABLE -> SOLD. It reports false when the slot was not AVAILABLE.
	MarkAdSlotSoldTx(ctx context.Context, tx *gorm.DB, id string, now time.Time) (bool, error)
}

type BidRepository interface {
	InsertBid(ctx context.Context, item *models.Bid) error
	GetBidByID(ctx context.Context, id string) (*models.Bid, error)
	GetBidByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Bid, error)
	ListBids(ctx context.Context, params ListBidsParams) ([]models.Bid, error)
	CountBids(ctx context.Context, params ListBidsParams) (int64, error)
	// TransitionBidStatusTx moves a bid from one status to another and applies extra column updates.
	// It reports false when the bid was not in the expected status.
	TransitionBidStatusTx(ctx context.Context, tx *gorm.DB, id, from, to string, updates map[string]any) (bool, error)
	OutbidPendingBidsTx(ctx context.Context, tx *gorm.DB, slotID, exceptBidID string, now time.Time) (int64, error)
	ExpirePendingBidsPublishedBeforeTx(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type DealRepository interface {
	InsertDealTx(ctx context.Context, tx *gorm.DB, item *models.Deal) error
	GetDealByID(ctx context.Context, id string) (*models.Deal, error)
	GetDealByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Deal, error)
	ListDeals(ctx context.Context, params ListDealsParams) ([]models.Deal, error)
	CountDeals(ctx context.Context, params ListDealsParams) (int64, error)
	// UpdateDealWhereTx updates a deal only if every column in expect still holds the given value.
	UpdateDealWhereTx(ctx context.Context, tx *gorm.DB, id string, expect map[string]any, updates map[string]any) (bool, error)

	InsertLedgerEntryTx(ctx context.Context, tx *gorm.DB, item *models.LedgerEntry) error
	ListLedgerEntriesByDealID(ctx context.Context, dealID string) ([]models.LedgerEntry, error)
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// Repository is everything the marketplace services need from storage.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	// InSettlementTx runs fn at the isolation level configured for deal settlement.
	InSettlementTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error

	ListingRepository
	BidRepository
	DealRepository
	SettingsRepository
}

type ListListingsParams struct {
	Limit     int
	Offset    int
	CreatorID *string
	Status    *string
	OrderBy   string
	Asc       *bool
}

type DiscoverParams struct {
	Limit  int
	Offset int
	Now    time.Time
	Topic  *string
}

type ListBidsParams struct {
	Limit     int
	Offset    int
	BrandID   *string
	CreatorID *string
	SlotID    *string
	ListingID *string
	Status    *string
	OrderBy   string
	Asc       *bool
}

// Deal list filters.
const (
	DealFilterActive    = "active"
	DealFilterCompleted = "completed"
	DealFilterPending   = "pending"
)

type ListDealsParams struct {
	Limit     int
	Offset    int
	CreatorID *string
	BrandID   *string
	Filter    string
	OrderBy   string
	Asc       *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
