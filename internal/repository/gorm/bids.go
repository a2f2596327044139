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

var bidOrderColumns = []string{"created_at", "updated_at", "amount"}

func (s *Store) InsertBid(ctx context.Context, item *models.Bid) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return classify(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetBidByID(ctx context.Context, id string) (*models.Bid, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item *models.Bid
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		item, err = getBid(db, id)
		return err
	})
	return item, err
}

func (s *Store) GetBidByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Bid, error) {
	if s == nil || tx == nil {
		return nil, nil
	}
	return getBid(tx.WithContext(ctx), id)
}

func getBid(db *gorm.DB, id string) (*models.Bid, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Bid
	err := db.Model(&models.Bid{}).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func bidsQuery(db *gorm.DB, params repository.ListBidsParams) *gorm.DB {
	query := db.Model(&models.Bid{})
	if v, ok := trimmed(params.BrandID); ok {
		query = query.Where("brand_id = ?", v)
	}
	if v, ok := trimmed(params.CreatorID); ok {
		query = query.Where("creator_id = ?", v)
	}
	if v, ok := trimmed(params.SlotID); ok {
		query = query.Where("slot_id = ?", v)
	}
	if v, ok := trimmed(params.ListingID); ok {
		query = query.Where("listing_id = ?", v)
	}
	if v, ok := trimmed(params.Status); ok {
		query = query.Where("status = ?", strings.ToUpper(v))
	}
	return query
}

func (s *Store) ListBids(ctx context.Context, params repository.ListBidsParams) ([]models.Bid, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bid
	err := s.read(ctx, func(db *gorm.DB) error {
		items = nil
		query := applyOrder(bidsQuery(db, params), params.OrderBy, params.Asc, "created_at", bidOrderColumns...)
		return query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountBids(ctx context.Context, params repository.ListBidsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.read(ctx, func(db *gorm.DB) error {
		return bidsQuery(db, params).Count(&total).Error
	})
	return total, err
}

func (s *Store) TransitionBidStatusTx(ctx context.Context, tx *gorm.DB, id, from, to string, updates map[string]any) (bool, error) {
	if s == nil || tx == nil {
		return false, nil
	}
	values := map[string]any{}
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now().UTC()
	}
	res := tx.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) OutbidPendingBidsTx(ctx context.Context, tx *gorm.DB, slotID, exceptBidID string, now time.Time) (int64, error) {
	if s == nil || tx == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := tx.WithContext(ctx).
		Model(&models.Bid{}).
		Where("slot_id = ?", slotID).
		Where("status = ?", models.BidStatusPending).
		Where("id <> ?", exceptBidID).
		Updates(map[string]any{"status": models.BidStatusOutbid, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (s *Store) ExpirePendingBidsPublishedBeforeTx(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	if s == nil || tx == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	published := tx.Model(&models.ContentListing{}).
		Select("id").
		Where("planned_publish_date <= ?", now)
	res := tx.WithContext(ctx).
		Model(&models.Bid{}).
		Where("status = ?", models.BidStatusPending).
		Where("listing_id IN (?)", published).
		Updates(map[string]any{"status": models.BidStatusExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}
