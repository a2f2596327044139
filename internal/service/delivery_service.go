package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"adstream/internal/apperr"
	"adstream/internal/identity"
	"adstream/internal/models"
	"adstream/internal/repository"
)

// DeliveryService covers everything after settlement: content submission, review and payment state.
type DeliveryService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *DeliveryService) SubmitContent(ctx context.Context, caller identity.Identity, dealID, contentURL string) (*models.Deal, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, apperr.Forbidden("only creators can submit content")
	}
	now := nowFrom(s.Now)
	var out *models.Deal
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		deal, err := s.loadDealTx(ctx, tx, dealID)
		if err != nil {
			return err
		}
		if deal.CreatorID != caller.UserID {
			return apperr.Forbidden("only the deal's creator can submit content")
		}
		if deal.ContentDelivered {
			return ErrContentAlreadySubmitted
		}
		if deal.VerificationStatus != models.VerificationPending {
			return ErrDealNotSubmittable
		}
		link, err := parseContentURL(contentURL)
		if err != nil {
			return err
		}
		ok, err := s.Repo.UpdateDealWhereTx(ctx, tx, deal.ID,
			map[string]any{"content_delivered": false, "verification_status": models.VerificationPending},
			map[string]any{"content_delivered": true, "content_url": link, "delivered_at": now, "updated_at": now},
		)
		if err != nil {
			return err
		}
		if !ok {
			return ErrContentAlreadySubmitted
		}
		out, err = s.Repo.GetDealByIDTx(ctx, tx, deal.ID)
		if err != nil {
			return err
		}
		return s.Repo.InsertLedgerEntryTx(ctx, tx, ledgerEntry(out, models.LedgerContentSubmitted, caller.UserID, map[string]any{
			"content_url": link,
		}, now))
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("content submitted", zap.String("deal_id", out.ID), zap.String("creator_id", caller.UserID))
	}
	return out, nil
}

func parseContentURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.InvalidArgument("content url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.InvalidArgument("content url must be an absolute http(s) url")
	}
	return u.String(), nil
}

// ReviewDelivery records the brand's (or an admin's) verdict on delivered content.
// Approval makes an after-delivery payment payable.
func (s *DeliveryService) ReviewDelivery(ctx context.Context, caller identity.Identity, dealID, decision, notes string) (*models.Deal, error) {
	if !caller.Is(identity.RoleBrand) && !caller.Is(identity.RoleAdmin) {
		return nil, apperr.Forbidden("only the brand or an admin can review deliveries")
	}
	decision = strings.ToUpper(strings.TrimSpace(decision))
	switch decision {
	case models.VerificationApproved, models.VerificationRejected, models.VerificationDisputed:
	default:
		return nil, apperr.InvalidArgument("decision must be APPROVED, REJECTED or DISPUTED")
	}
	notes = strings.TrimSpace(notes)
	now := nowFrom(s.Now)

	var (
		out  *models.Deal
		from string
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		deal, err := s.loadDealTx(ctx, tx, dealID)
		if err != nil {
			return err
		}
		if caller.Role == identity.RoleBrand && deal.BrandID != caller.UserID {
			return apperr.Forbidden("only the deal's brand can review this delivery")
		}
		if !deal.ContentDelivered {
			return ErrContentNotSubmitted
		}
		from = deal.VerificationStatus
		switch from {
		case models.VerificationPending:
		case models.VerificationDisputed:
			if caller.Role != identity.RoleAdmin {
				return apperr.Forbidden("only an admin can resolve a disputed delivery")
			}
			if decision == models.VerificationDisputed {
				return apperr.InvalidState("delivery is already disputed")
			}
		default:
			return apperr.InvalidState("delivery has already been reviewed")
		}

		updates := map[string]any{"verification_status": decision, "updated_at": now}
		if notes != "" {
			updates["verification_notes"] = notes
		}
		if decision == models.VerificationApproved {
			if deal.PaymentTiming == models.PaymentTimingAfterDelivery && deal.PaymentStatus == models.PaymentStatusPending {
				updates["payment_status"] = models.PaymentStatusProcessing
			}
			if deal.PaymentStatus == models.PaymentStatusPaid {
				updates["completed_at"] = now
			}
		}
		ok, err := s.Repo.UpdateDealWhereTx(ctx, tx, deal.ID,
			map[string]any{"verification_status": from, "payment_status": deal.PaymentStatus},
			updates,
		)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDealChanged
		}
		out, err = s.Repo.GetDealByIDTx(ctx, tx, deal.ID)
		if err != nil {
			return err
		}
		return s.Repo.InsertLedgerEntryTx(ctx, tx, ledgerEntry(out, models.LedgerVerificationReviewed, caller.UserID, map[string]any{
			"from":           from,
			"to":             decision,
			"notes":          notes,
			"payment_status": out.PaymentStatus,
		}, now))
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("delivery reviewed",
			zap.String("deal_id", out.ID),
			zap.String("from", from),
			zap.String("to", decision),
			zap.String("reviewer", caller.UserID),
		)
	}
	return out, nil
}

// UpdatePaymentStatus moves the payment state of a deal. Only admins record payment outcomes.
func (s *DeliveryService) UpdatePaymentStatus(ctx context.Context, caller identity.Identity, dealID, status string) (*models.Deal, error) {
	if !caller.Is(identity.RoleAdmin) {
		return nil, apperr.Forbidden("only admins can update payment status")
	}
	to := strings.ToUpper(strings.TrimSpace(status))
	switch to {
	case models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusPaid,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		return nil, apperr.InvalidArgument("unknown payment status")
	}
	now := nowFrom(s.Now)

	var (
		out  *models.Deal
		from string
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		deal, err := s.loadDealTx(ctx, tx, dealID)
		if err != nil {
			return err
		}
		from = deal.PaymentStatus
		if !PaymentTransitionAllowed(deal, to) {
			return apperr.InvalidState(fmt.Sprintf("payment cannot move from %s to %s", from, to))
		}
		updates := map[string]any{"payment_status": to, "updated_at": now}
		if to == models.PaymentStatusPaid && deal.VerificationStatus == models.VerificationApproved {
			updates["completed_at"] = now
		}
		ok, err := s.Repo.UpdateDealWhereTx(ctx, tx, deal.ID,
			map[string]any{"payment_status": from, "verification_status": deal.VerificationStatus},
			updates,
		)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDealChanged
		}
		out, err = s.Repo.GetDealByIDTx(ctx, tx, deal.ID)
		if err != nil {
			return err
		}
		return s.Repo.InsertLedgerEntryTx(ctx, tx, ledgerEntry(out, models.LedgerPaymentUpdated, caller.UserID, map[string]any{
			"from": from,
			"to":   to,
		}, now))
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("payment status updated", zap.String("deal_id", out.ID), zap.String("from", from), zap.String("to", to))
	}
	return out, nil
}

// PaymentTransitionAllowed reports whether deal's payment may move to the given status.
func PaymentTransitionAllowed(deal *models.Deal, to string) bool {
	if deal == nil {
		return false
	}
	switch deal.PaymentStatus {
	case models.PaymentStatusPending:
		if to != models.PaymentStatusProcessing {
			return false
		}
		return deal.PaymentTiming == models.PaymentTimingUpfront || deal.VerificationStatus == models.VerificationApproved
	case models.PaymentStatusProcessing:
		return to == models.PaymentStatusPaid || to == models.PaymentStatusFailed
	case models.PaymentStatusFailed:
		return to == models.PaymentStatusProcessing
	case models.PaymentStatusPaid:
		return to == models.PaymentStatusRefunded
	}
	return false
}

func (s *DeliveryService) GetDeal(ctx context.Context, caller identity.Identity, id string) (*models.Deal, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("authentication required")
	}
	deal, err := s.Repo.GetDealByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if deal == nil {
		return nil, apperr.NotFound("deal not found")
	}
	if !canSeeDeal(caller, deal) {
		return nil, apperr.Forbidden("not a party to this deal")
	}
	return deal, nil
}

// ListDeals lists the caller's deals. filter is one of active, completed, pending or empty.
func (s *DeliveryService) ListDeals(ctx context.Context, caller identity.Identity, filter string, page Page) ([]models.Deal, int64, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	switch filter {
	case "", repository.DealFilterActive, repository.DealFilterCompleted, repository.DealFilterPending:
	default:
		return nil, 0, apperr.InvalidArgument("status must be active, completed or pending")
	}
	page = page.normalized()
	params := repository.ListDealsParams{Limit: page.Limit, Offset: page.Offset, Filter: filter, OrderBy: "created_at"}
	userID := caller.UserID
	switch {
	case caller.Is(identity.RoleCreator):
		params.CreatorID = &userID
	case caller.Is(identity.RoleBrand):
		params.BrandID = &userID
	case caller.Is(identity.RoleAdmin):
	default:
		return nil, 0, apperr.Unauthorized("authentication required")
	}
	items, err := s.Repo.ListDeals(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	total, err := s.Repo.CountDeals(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

// Ledger returns the audit trail of a deal, oldest first.
func (s *DeliveryService) Ledger(ctx context.Context, caller identity.Identity, dealID string) ([]models.LedgerEntry, error) {
	if _, err := s.GetDeal(ctx, caller, dealID); err != nil {
		return nil, err
	}
	items, err := s.Repo.ListLedgerEntriesByDealID(ctx, dealID)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

func (s *DeliveryService) loadDealTx(ctx context.Context, tx *gorm.DB, id string) (*models.Deal, error) {
	deal, err := s.Repo.GetDealByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, apperr.NotFound("deal not found")
	}
	return deal, nil
}

func canSeeDeal(caller identity.Identity, deal *models.Deal) bool {
	switch caller.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleCreator:
		return deal.CreatorID == caller.UserID
	case identity.RoleBrand:
		return deal.BrandID == caller.UserID
	}
	return false
}
