package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"adstream/internal/repository"
)

// BidExpirySweeper expires pending bids on listings whose publish date has passed
// and closes those listings.
type BidExpirySweeper struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Flags  *SystemSettingsService
	Now    func() time.Time
}

type SweepResult struct {
	ExpiredBids    int64
	ClosedListings int64
}

func (s *BidExpirySweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if s == nil || s.Repo == nil {
		return res, nil
	}
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureBidExpirySweep, true) {
		return res, nil
	}
	now := nowFrom(s.Now)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		res.ExpiredBids, err = s.Repo.ExpirePendingBidsPublishedBeforeTx(ctx, tx, now)
		if err != nil {
			return err
		}
		res.ClosedListings, err = s.Repo.CloseListingsPublishedBeforeTx(ctx, tx, now)
		return err
	})
	if err != nil {
		return SweepResult{}, storeErr(err)
	}
	if s.Logger != nil && (res.ExpiredBids > 0 || res.ClosedListings > 0) {
		s.Logger.Info("bid expiry sweep",
			zap.Int64("expired_bids", res.ExpiredBids),
			zap.Int64("closed_listings", res.ClosedListings),
		)
	}
	return res, nil
}

// Run adapts RunOnce to the cron runner.
func (s *BidExpirySweeper) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}
