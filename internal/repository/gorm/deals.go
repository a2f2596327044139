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

var dealOrderColumns = []string{"created_at", "updated_at", "deal_amount", "delivered_at"}

func (s *Store) InsertDealTx(ctx context.Context, tx *gorm.DB, item *models.Deal) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return classify(tx.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetDealByID(ctx context.Context, id string) (*models.Deal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item *models.Deal
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		item, err = getDeal(db, id)
		return err
	})
	return item, err
}

func (s *Store) GetDealByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Deal, error) {
	if s == nil || tx == nil {
		return nil, nil
	}
	return getDeal(tx.WithContext(ctx), id)
}

func getDeal(db *gorm.DB, id string) (*models.Deal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Deal
	err := withDealSlot(db.Model(&models.Deal{})).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// withDealSlot loads the sold slot and its listing for display.
func withDealSlot(query *gorm.DB) *gorm.DB {
	return query.Preload("Slot").Preload("Slot.Listing")
}

func dealsQuery(db *gorm.DB, params repository.ListDealsParams) *gorm.DB {
	query := db.Model(&models.Deal{})
	if v, ok := trimmed(params.CreatorID); ok {
		query = query.Where("creator_id = ?", v)
	}
	if v, ok := trimmed(params.BrandID); ok {
		query = query.Where("brand_id = ?", v)
	}
	switch strings.ToLower(strings.TrimSpace(params.Filter)) {
	case repository.DealFilterActive:
		query = query.
			Where("verification_status = ?", models.VerificationPending).
			Where("payment_status IN ?", []string{models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusPaid})
	case repository.DealFilterCompleted:
		query = query.Where("verification_status = ?", models.VerificationApproved)
	case repository.DealFilterPending:
		query = query.Where("payment_status = ?", models.PaymentStatusPending)
	}
	return query
}

func (s *Store) ListDeals(ctx context.Context, params repository.ListDealsParams) ([]models.Deal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Deal
	err := s.read(ctx, func(db *gorm.DB) error {
		items = nil
		query := applyOrder(dealsQuery(db, params), params.OrderBy, params.Asc, "created_at", dealOrderColumns...)
		return withDealSlot(query).Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountDeals(ctx context.Context, params repository.ListDealsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.read(ctx, func(db *gorm.DB) error {
		return dealsQuery(db, params).Count(&total).Error
	})
	return total, err
}

func (s *Store) UpdateDealWhereTx(ctx context.Context, tx *gorm.DB, id string, expect map[string]any, updates map[string]any) (bool, error) {
	if s == nil || tx == nil || len(updates) == 0 {
		return false, nil
	}
	query := tx.WithContext(ctx).Model(&models.Deal{}).Where("id = ?", id)
	for _, col := range sortedKeys(expect) {
		query = query.Where(col+" = ?", expect[col])
	}
	values := map[string]any{}
	for k, v := range updates {
		values[k] = v
	}
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now().UTC()
	}
	res := query.Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) InsertLedgerEntryTx(ctx context.Context, tx *gorm.DB, item *models.LedgerEntry) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) ListLedgerEntriesByDealID(ctx context.Context, dealID string) ([]models.LedgerEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return nil, nil
	}
	var items []models.LedgerEntry
	err := s.read(ctx, func(db *gorm.DB) error {
		items = nil
		return db.Model(&models.LedgerEntry{}).
			Where("deal_id = ?", dealID).
			Order("id asc").
			Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
