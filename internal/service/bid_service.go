package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"adstream/internal/apperr"
	"adstream/internal/identity"
	"adstream/internal/models"
	"adstream/internal/repository"
)

// BidService records and rejects bids. Acceptance lives in SettlementService.
type BidService struct {
	Repo          repository.Repository
	Logger        *zap.Logger
	BiddingWindow time.Duration
	Now           func() time.Time
}

type PlaceBidInput struct {
	SlotID  string
	Amount  string
	Message string
}

type ListBidsInput struct {
	Status string
	SlotID string
	Page   Page
}

func (s *BidService) PlaceBid(ctx context.Context, caller identity.Identity, in PlaceBidInput) (*models.Bid, error) {
	if !caller.Is(identity.RoleBrand) {
		return nil, apperr.Forbidden("only brands can place bids")
	}
	amount, err := parseMoney("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperr.InvalidArgument("amount must be positive")
	}

	slot, err := s.Repo.GetAdSlotByID(ctx, in.SlotID)
	if err != nil {
		return nil, storeErr(err)
	}
	if slot == nil || slot.Listing == nil {
		return nil, apperr.NotFound("ad slot not found")
	}
	if slot.Status != models.SlotStatusAvailable || slot.Listing.Status != models.ListingStatusActive {
		return nil, ErrSlotUnavailable
	}
	if amount.LessThan(slot.ReservePrice) {
		return nil, apperr.InvalidArgument(fmt.Sprintf("bid must be at least $%s", slot.ReservePrice.StringFixed(2)))
	}
	now := nowFrom(s.Now)
	if !BiddingOpen(slot.Listing.PlannedPublishDate, now, s.window()) {
		return nil, ErrBiddingWindowClosed
	}

	bid := &models.Bid{
		BrandID:   caller.UserID,
		SlotID:    slot.ID,
		ListingID: slot.ListingID,
		CreatorID: slot.Listing.CreatorID,
		Amount:    amount,
		Message:   strings.TrimSpace(in.Message),
		Status:    models.BidStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.InsertBid(ctx, bid); err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("bid placed",
			zap.String("bid_id", bid.ID),
			zap.String("slot_id", bid.SlotID),
			zap.String("brand_id", bid.BrandID),
			zap.String("amount", bid.Amount.StringFixed(2)),
		)
	}
	return bid, nil
}

func (s *BidService) RejectBid(ctx context.Context, caller identity.Identity, bidID, reason string) (*models.Bid, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, apperr.Forbidden("only creators can reject bids")
	}
	now := nowFrom(s.Now)
	reason = strings.TrimSpace(reason)
	var out *models.Bid
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		bid, err := s.Repo.GetBidByIDTx(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if bid == nil {
			return apperr.NotFound("bid not found")
		}
		if bid.CreatorID != caller.UserID {
			return apperr.Forbidden("only the listing's creator can reject this bid")
		}
		if bid.Status != models.BidStatusPending {
			return apperr.InvalidState(ErrBidNotPending.Message)
		}
		updates := map[string]any{"updated_at": now}
		if reason != "" {
			updates["message"] = "Rejected: " + reason
		}
		ok, err := s.Repo.TransitionBidStatusTx(ctx, tx, bid.ID, models.BidStatusPending, models.BidStatusRejected, updates)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState(ErrBidNotPending.Message)
		}
		out, err = s.Repo.GetBidByIDTx(ctx, tx, bid.ID)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("bid rejected", zap.String("bid_id", out.ID), zap.String("creator_id", caller.UserID))
	}
	return out, nil
}

// GetBid is visible to the bidding brand, the receiving creator and admins.
func (s *BidService) GetBid(ctx context.Context, caller identity.Identity, id string) (*models.Bid, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("authentication required")
	}
	bid, err := s.Repo.GetBidByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if bid == nil {
		return nil, apperr.NotFound("bid not found")
	}
	if !canSeeBid(caller, bid) {
		return nil, apperr.Forbidden("not a party to this bid")
	}
	return bid, nil
}

// ListBids returns bids placed by a brand or received by a creator. Admins see all bids.
func (s *BidService) ListBids(ctx context.Context, caller identity.Identity, in ListBidsInput) ([]models.Bid, int64, error) {
	page := in.Page.normalized()
	params := repository.ListBidsParams{Limit: page.Limit, Offset: page.Offset, OrderBy: "created_at"}
	userID := caller.UserID
	switch {
	case caller.Is(identity.RoleBrand):
		params.BrandID = &userID
	case caller.Is(identity.RoleCreator):
		params.CreatorID = &userID
	case caller.Is(identity.RoleAdmin):
	default:
		return nil, 0, apperr.Unauthorized("authentication required")
	}
	if st := strings.ToUpper(strings.TrimSpace(in.Status)); st != "" {
		if !isBidStatus(st) {
			return nil, 0, apperr.InvalidArgument("unknown bid status")
		}
		params.Status = &st
	}
	if slotID := strings.TrimSpace(in.SlotID); slotID != "" {
		params.SlotID = &slotID
	}
	items, err := s.Repo.ListBids(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	total, err := s.Repo.CountBids(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

func (s *BidService) window() time.Duration {
	if s.BiddingWindow > 0 {
		return s.BiddingWindow
	}
	return DefaultBiddingWindow
}

func canSeeBid(caller identity.Identity, bid *models.Bid) bool {
	switch caller.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleBrand:
		return bid.BrandID == caller.UserID
	case identity.RoleCreator:
		return bid.CreatorID == caller.UserID
	}
	return false
}

func isBidStatus(v string) bool {
	switch v {
	case models.BidStatusPending, models.BidStatusAccepted, models.BidStatusRejected, models.BidStatusOutbid, models.BidStatusExpired:
		return true
	}
	return false
}
