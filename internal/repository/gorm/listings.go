package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"adstream/internal/models"
	"adstream/internal/repository"
)

var listingOrderColumns = []string{"created_at", "planned_publish_date", "title"}

func orderSlots(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }

func orderBids(db *gorm.DB) *gorm.DB { return db.Order("created_at desc, id asc") }

func (s *Store) CreateListingTx(ctx context.Context, tx *gorm.DB, item *models.ContentListing) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return classify(tx.WithContext(ctx).Create(item).Error)
}

func (s *Store) CreateAdSlotsTx(ctx context.Context, tx *gorm.DB, items []models.AdSlot) error {
	if s == nil || tx == nil || len(items) == 0 {
		return nil
	}
	return classify(tx.WithContext(ctx).Create(&items).Error)
}

func (s *Store) GetListingByID(ctx context.Context, id string) (*models.ContentListing, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item *models.ContentListing
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		item, err = s.getListing(db, id)
		return err
	})
	return item, err
}

func (s *Store) GetListingByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.ContentListing, error) {
	if s == nil || tx == nil {
		return nil, nil
	}
	return s.getListing(tx.WithContext(ctx), id)
}

func (s *Store) getListing(db *gorm.DB, id string) (*models.ContentListing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.ContentListing
	err := db.Model(&models.ContentListing{}).
		Preload("AdSlots", orderSlots).
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func listingsQuery(db *gorm.DB, params repository.ListListingsParams) *gorm.DB {
	query := db.Model(&models.ContentListing{})
	if v, ok := trimmed(params.CreatorID); ok {
		query = query.Where("creator_id = ?", v)
	}
	if v, ok := trimmed(params.Status); ok {
		query = query.Where("status = ?", strings.ToUpper(v))
	}
	return query
}

func (s *Store) ListListings(ctx context.Context, params repository.ListListingsParams) ([]models.ContentListing, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ContentListing
	err := s.read(ctx, func(db *gorm.DB) error {
		items = nil
		query := listingsQuery(db, params).
			Preload("AdSlots", orderSlots).
			Preload("Bids", orderBids)
		query = applyOrder(query, params.OrderBy, params.Asc, "created_at", listingOrderColumns...)
		return query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountListings(ctx context.Context, params repository.ListListingsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.read(ctx, func(db *gorm.DB) error {
		return listingsQuery(db, params).Count(&total).Error
	})
	return total, err
}

func discoverQuery(db *gorm.DB, params repository.DiscoverParams) *gorm.DB {
	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	query := db.Model(&models.ContentListing{}).
		Where("status = ?", models.ListingStatusActive).
		Where("planned_publish_date >= ?", now).
		Where("EXISTS (SELECT 1 FROM ad_slots WHERE ad_slots.listing_id = content_listings.id AND ad_slots.status = ?)", models.SlotStatusAvailable)
	if v, ok := trimmed(params.Topic); ok {
		query = query.Where("LOWER(topic) = ?", strings.ToLower(v))
	}
	return query
}

func (s *Store) ListDiscoverableListings(ctx context.Context, params repository.DiscoverParams) ([]models.ContentListing, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ContentListing
	err := s.read(ctx, func(db *gorm.DB) error {
		items = nil
		return discoverQuery(db, params).
			Preload("AdSlots", orderSlots).
			Order("planned_publish_date asc, id asc").
			Limit(normalizeLimit(params.Limit, 50)).
			Offset(normalizeOffset(params.Offset)).
			Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountDiscoverableListings(ctx context.Context, params repository.DiscoverParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.read(ctx, func(db *gorm.DB) error {
		return discoverQuery(db, params).Count(&total).Error
	})
	return total, err
}

func (s *Store) CountPendingBidsByListingIDs(ctx context.Context, listingIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	if s == nil || s.db == nil {
		return out, nil
	}
	ids := cleanStrings(listingIDs)
	if len(ids) == 0 {
		return out, nil
	}
	type row struct {
		ListingID string
		Total     int64
	}
	var rows []row
	err := s.read(ctx, func(db *gorm.DB) error {
		rows = nil
		return db.Model(&models.Bid{}).
			Select("listing_id, COUNT(*) AS total").
			Where("listing_id IN ?", ids).
			Where("status = ?", models.BidStatusPending).
			Group("listing_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ListingID] = r.Total
	}
	return out, nil
}

func (s *Store) CloseListingsPublishedBeforeTx(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	if s == nil || tx == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := tx.WithContext(ctx).
		Model(&models.ContentListing{}).
		Where("status = ?", models.ListingStatusActive).
		Where("planned_publish_date <= ?", now).
		Updates(map[string]any{"status": models.ListingStatusClosed, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (s *Store) GetAdSlotByID(ctx context.Context, id string) (*models.AdSlot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item *models.AdSlot
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		item, err = getAdSlot(db, id)
		return err
	})
	return item, err
}

func (s *Store) GetAdSlotByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.AdSlot, error) {
	if s == nil || tx == nil {
		return nil, nil
	}
	return getAdSlot(tx.WithContext(ctx), id)
}

func getAdSlot(db *gorm.DB, id string) (*models.AdSlot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.AdSlot
	err := db.Model(&models.AdSlot{}).Preload("Listing").Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) MarkAdSlotSoldTx(ctx context.Context, tx *gorm.DB, id string, now time.Time) (bool, error) {
	if s == nil || tx == nil {
		return false, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := tx.WithContext(ctx).
		Model(&models.AdSlot{}).
		Where("id = ? AND status = ?", id, models.SlotStatusAvailable).
		Updates(map[string]any{"status": models.SlotStatusSold, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
