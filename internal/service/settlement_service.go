package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"adstream/internal/apperr"
	"adstream/internal/identity"
	"adstream/internal/models"
	"adstream/internal/repository"
)

// SettlementService turns an accepted bid into a deal.
// FeeRate is applied as given, so zero means no platform fee; ParseFeeRate supplies the default.
type SettlementService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	FeeRate decimal.Decimal
	Now     func() time.Time
}

type AcceptResult struct {
	Bid  models.Bid
	Deal models.Deal
}

// AcceptBid accepts a pending bid, outbids the other pending bids on the slot, sells the slot and
// creates the deal in one transaction. A lost race is reported as ErrSlotUnavailable and is
// never retried here.
func (s *SettlementService) AcceptBid(ctx context.Context, caller identity.Identity, bidID, paymentTiming string) (*AcceptResult, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, apperr.Forbidden("only creators can accept bids")
	}
	timing, err := parsePaymentTiming(paymentTiming)
	if err != nil {
		return nil, err
	}
	rate := s.FeeRate
	now := nowFrom(s.Now)

	var (
		result AcceptResult
		outbid int64
	)
	err = s.Repo.InSettlementTx(ctx, func(tx *gorm.DB) error {
		bid, err := s.Repo.GetBidByIDTx(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if bid == nil {
			return apperr.NotFound("bid not found")
		}
		slot, err := s.Repo.GetAdSlotByIDTx(ctx, tx, bid.SlotID)
		if err != nil {
			return err
		}
		if slot == nil || slot.Listing == nil {
			return apperr.NotFound("ad slot not found")
		}
		if slot.Listing.CreatorID != caller.UserID {
			return apperr.Forbidden("only the listing's creator can accept this bid")
		}
		if bid.Status != models.BidStatusPending {
			return ErrBidNotPending
		}
		if slot.Status != models.SlotStatusAvailable {
			return ErrSlotUnavailable
		}

		split := SplitFee(bid.Amount, rate)

		ok, err := s.Repo.TransitionBidStatusTx(ctx, tx, bid.ID, models.BidStatusPending, models.BidStatusAccepted, map[string]any{"updated_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return ErrBidNotPending
		}
		outbid, err = s.Repo.OutbidPendingBidsTx(ctx, tx, slot.ID, bid.ID, now)
		if err != nil {
			return err
		}
		sold, err := s.Repo.MarkAdSlotSoldTx(ctx, tx, slot.ID, now)
		if err != nil {
			return err
		}
		if !sold {
			return ErrSlotUnavailable
		}

		deal := models.Deal{
			BidID:              bid.ID,
			SlotID:             slot.ID,
			CreatorID:          slot.Listing.CreatorID,
			BrandID:            bid.BrandID,
			DealAmount:         split.Amount,
			PlatformFee:        split.PlatformFee,
			CreatorPayout:      split.CreatorPayout,
			PaymentTiming:      timing,
			PaymentStatus:      models.PaymentStatusPending,
			VerificationStatus: models.VerificationPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.Repo.InsertDealTx(ctx, tx, &deal); err != nil {
			return err
		}
		entry := ledgerEntry(&deal, models.LedgerDealCreated, caller.UserID, map[string]any{
			"amount":         split.Amount.StringFixed(2),
			"fee_rate":       split.Rate.String(),
			"platform_fee":   split.PlatformFee.StringFixed(2),
			"creator_payout": split.CreatorPayout.StringFixed(2),
			"payment_timing": timing,
			"outbid_count":   outbid,
		}, now)
		if err := s.Repo.InsertLedgerEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		accepted, err := s.Repo.GetBidByIDTx(ctx, tx, bid.ID)
		if err != nil {
			return err
		}
		soldSlot := *slot
		soldSlot.Status = models.SlotStatusSold
		soldSlot.UpdatedAt = now
		deal.Slot = &soldSlot
		result = AcceptResult{Bid: *accepted, Deal: deal}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrWriteConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, ErrSlotUnavailable.Message, err)
		}
		if s.Logger != nil && apperr.KindOf(err) == apperr.KindInfrastructure {
			s.Logger.Error("accept bid failed", zap.String("bid_id", bidID), zap.Error(err))
		}
		return nil, apperr.Infrastructure(err)
	}
	if s.Logger != nil {
		s.Logger.Info("bid accepted",
			zap.String("bid_id", result.Bid.ID),
			zap.String("deal_id", result.Deal.ID),
			zap.String("slot_id", result.Deal.SlotID),
			zap.String("amount", result.Deal.DealAmount.StringFixed(2)),
			zap.String("platform_fee", result.Deal.PlatformFee.StringFixed(2)),
			zap.Int64("outbid", outbid),
		)
	}
	return &result, nil
}

func parsePaymentTiming(v string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "":
		return models.PaymentTimingAfterDelivery, nil
	case models.PaymentTimingAfterDelivery:
		return models.PaymentTimingAfterDelivery, nil
	case models.PaymentTimingUpfront:
		return models.PaymentTimingUpfront, nil
	}
	return "", apperr.InvalidArgument("payment timing must be UPFRONT or AFTER_DELIVERY")
}

func ledgerEntry(deal *models.Deal, kind, actorID string, details map[string]any, now time.Time) *models.LedgerEntry {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	return &models.LedgerEntry{
		DealID:    deal.ID,
		BidID:     deal.BidID,
		SlotID:    deal.SlotID,
		Kind:      kind,
		ActorID:   actorID,
		Details:   datatypes.JSON(raw),
		CreatedAt: now,
	}
}
